package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/birdmeal/internal/catalog"
	"github.com/mmcdole/birdmeal/internal/config"
	"github.com/mmcdole/birdmeal/internal/domain"
	"github.com/mmcdole/birdmeal/internal/favorites"
	"github.com/mmcdole/birdmeal/internal/log"
	"github.com/mmcdole/birdmeal/internal/prefs"
	"github.com/mmcdole/birdmeal/internal/remote"
	"github.com/mmcdole/birdmeal/internal/search"
	"github.com/mmcdole/birdmeal/internal/session"
	"github.com/mmcdole/birdmeal/internal/store"
	"github.com/mmcdole/birdmeal/internal/tui"
	"github.com/mmcdole/birdmeal/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

func main() {
	var showVersion, logout bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&logout, "logout", false, "sign out and forget the server")
	flag.Parse()

	if showVersion {
		fmt.Printf("birdmeal %s\n", Version)
		return
	}

	if err := run(logout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(logout bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting birdmeal", "version", Version)

	if logout {
		return runLogout(cfg, logger)
	}

	if !cfg.IsConfigured() {
		serverURL, err := promptServerURL()
		if err != nil {
			return err
		}
		cfg.Server.URL = serverURL
	}

	st, err := store.New(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer st.Close()

	client := remote.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger)
	sessionSvc := session.NewService(client, st, logger)

	profile, err := resumeOrLogin(cfg, sessionSvc, logger)
	if err != nil {
		return err
	}

	coord := favorites.NewCoordinator(*profile, client, st, favorites.Options{
		CallTimeout:        cfg.Sync.CallTimeout,
		TrustPatchResponse: cfg.Sync.TrustPatchResponse,
	}, logger)
	defer coord.Close()

	catalogStore := catalog.NewStore(client, st, logger)
	searchSvc := search.NewService(catalogStore, logger)

	prefsPath := prefs.DefaultPath()
	uiPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("ignoring unreadable preferences", "path", prefsPath, "error", err)
	}

	model := tui.NewModel(tui.Options{
		Catalog:      catalogStore,
		Search:       searchSvc,
		Coordinator:  coord,
		Session:      sessionSvc,
		Username:     profile.Username,
		DefaultView:  cfg.UI.DefaultView,
		ConfirmClear: cfg.UI.ConfirmClear,
		FuzzySearch:  cfg.UI.FuzzySearch,
		PrefsPath:    prefsPath,
		Prefs:        uiPrefs,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI", "profileID", profile.ID)

	final, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(tui.Model); ok {
		m.Close()
		if m.LoggedOut {
			if err := config.NewLoader("").ClearServerConfig(); err != nil {
				return fmt.Errorf("failed to clear config: %w", err)
			}
			fmt.Println("Signed out.")
		}
	}

	logger.Info("shutting down")
	return nil
}

// resumeOrLogin returns the cached profile, or signs in when there is none
func resumeOrLogin(cfg *config.Config, sessionSvc *session.Service, logger *slog.Logger) (*domain.Profile, error) {
	profile, ok, err := sessionSvc.Resume()
	if err != nil {
		logger.Warn("cached profile discarded", "error", err)
	}
	if ok {
		return profile, nil
	}

	authFlow := remote.NewAuthFlow(logger)
	result, err := authFlow.Run(context.Background(), cfg.Server.URL)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := sessionSvc.Adopt(*result.Profile); err != nil {
		return nil, fmt.Errorf("failed to cache profile: %w", err)
	}

	cfg.Server.Username = result.Profile.Username
	if err := config.SaveConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return result.Profile, nil
}

// runLogout clears the cached session and forgets the server
func runLogout(cfg *config.Config, logger *slog.Logger) error {
	if cfg.IsConfigured() {
		st, err := store.New(cfg.Cache.Dir, cfg.Server.URL)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer st.Close()

		if err := session.NewService(nil, st, logger).Logout(nil); err != nil {
			return err
		}
	}
	if err := config.NewLoader("").ClearServerConfig(); err != nil {
		return fmt.Errorf("failed to clear config: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

// promptServerURL asks for the server URL until one answers like a catalog server
func promptServerURL() (string, error) {
	fmt.Println()
	fmt.Println("Welcome to Birdmeal!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter your server URL (e.g., http://localhost:3000): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		serverURL := strings.TrimRight(strings.TrimSpace(input), "/")

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		fmt.Println()
		if err := probeWithSpinner(serverURL); err != nil {
			fmt.Printf("\n✗ Could not reach a catalog server: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		return serverURL, nil
	}
}

// probeWithSpinner checks the server with a visual spinner
func probeWithSpinner(serverURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	type result struct {
		count int
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		count, err := remote.Probe(ctx, serverURL)
		resultCh <- result{count, err}
	}()

	frame := 0
	fmt.Printf("\r%s Contacting server...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case res := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if res.err != nil {
				return res.err
			}
			fmt.Printf("✓ Found catalog with %d items\n", res.count)
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Contacting server...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("server did not answer in time")
		}
	}
}
