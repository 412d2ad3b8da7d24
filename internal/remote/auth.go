package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/mmcdole/birdmeal/internal/domain"
	"golang.org/x/term"
)

const authTimeout = 30 * time.Second

var _ domain.AuthFlow = (*AuthFlow)(nil)

// AuthFlow implements domain.AuthFlow with a username/password prompt
type AuthFlow struct {
	logger *slog.Logger
	in     io.Reader
	out    io.Writer

	// readPassword reads a line without echo
	readPassword func() ([]byte, error)
}

// NewAuthFlow creates a login flow reading from the terminal
func NewAuthFlow(logger *slog.Logger) *AuthFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFlow{
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
		readPassword: func() ([]byte, error) {
			return term.ReadPassword(int(syscall.Stdin))
		},
	}
}

// Run prompts for credentials and looks up the matching profile on the server.
func (f *AuthFlow) Run(ctx context.Context, serverURL string) (*domain.AuthResult, error) {
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Sign in")
	fmt.Fprintln(f.out, "━━━━━━━")

	reader := bufio.NewReader(f.in)
	fmt.Fprint(f.out, "Username: ")
	username, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && username != "") {
		return nil, fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	// Hidden input
	fmt.Fprint(f.out, "Password: ")
	passwordBytes, err := f.readPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(f.out)

	fmt.Fprintln(f.out, "Signing in...")

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	client := NewClient(serverURL, authTimeout, f.logger)
	profile, err := client.FetchProfileByCredentials(ctx, username, string(passwordBytes))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			f.logger.Info("login rejected", "username", username)
			return nil, fmt.Errorf("invalid username or password: %w", err)
		}
		return nil, err
	}

	fmt.Fprintf(f.out, "Signed in as %s\n", profile.Username)
	return &domain.AuthResult{Profile: profile}, nil
}
