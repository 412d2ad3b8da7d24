package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/birdmeal/internal/domain"
)

const defaultCallTimeout = 10 * time.Second

// Options tunes the coordinator
type Options struct {
	// CallTimeout bounds every remote call. Zero uses the default.
	CallTimeout time.Duration
	// TrustPatchResponse uses the patch echo instead of re-fetching the profile
	TrustPatchResponse bool
}

// Result is the outcome of one queued request
type Result struct {
	ID        string
	Request   domain.MutationRequest
	State     domain.SyncState
	Favorites domain.FavoriteSet
	Err       error // cause for RolledBack, warning wrapping ErrPartialCommit for PartiallyCommitted
}

type job struct {
	req     domain.MutationRequest
	refresh bool
	result  chan Result
}

// Coordinator serializes favorite mutations for one profile.
// A single worker drains a FIFO queue so a patch is always built from the
// outcome of the request before it.
type Coordinator struct {
	remote      domain.ProfileRepository
	cache       domain.ProfileCache
	logger      *slog.Logger
	callTimeout time.Duration
	trustPatch  bool

	// Queue
	qmu    sync.Mutex
	queue  []*job
	wake   chan struct{}
	closed bool
	done   chan struct{}

	// Worker-owned base: the last known remote profile
	profile domain.Profile

	// Snapshot for readers
	mu        sync.RWMutex
	state     domain.SyncState
	displayed domain.FavoriteSet
	snapshot  domain.Profile
	observers map[int]domain.FavoritesObserver
	nextObsID int
}

// NewCoordinator starts a coordinator seeded with an authenticated profile
func NewCoordinator(profile domain.Profile, remote domain.ProfileRepository, cache domain.ProfileCache, opts Options, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	c := &Coordinator{
		remote:      remote,
		cache:       cache,
		logger:      logger,
		callTimeout: opts.CallTimeout,
		trustPatch:  opts.TrustPatchResponse,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		profile:     profile,
		state:       domain.SyncIdle,
		displayed:   profile.Favorites,
		snapshot:    profile,
		observers:   make(map[int]domain.FavoritesObserver),
	}
	go c.run()
	return c
}

// === Queries ===

// Favorites returns the currently displayed favorite set
func (c *Coordinator) Favorites() domain.FavoriteSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayed
}

// State returns the state of the request being processed, or Idle
func (c *Coordinator) State() domain.SyncState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Profile returns the last profile known to match the remote record
func (c *Coordinator) Profile() domain.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Subscribe registers an observer. The returned func removes it.
func (c *Coordinator) Subscribe(obs domain.FavoritesObserver) func() {
	c.mu.Lock()
	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = obs
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// === Commands ===

// Submit queues a mutation and returns a channel that receives its result.
// The request runs to completion even if nobody reads the channel.
func (c *Coordinator) Submit(req domain.MutationRequest) <-chan Result {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return c.enqueue(&job{req: req, result: make(chan Result, 1)})
}

// Mutate queues a mutation and waits for it to resolve.
// ctx only bounds the wait. A PartiallyCommitted result returns a nil error
// with the warning in Result.Err.
func (c *Coordinator) Mutate(ctx context.Context, req domain.MutationRequest) (Result, error) {
	return wait(ctx, c.Submit(req))
}

// Refresh queues a re-fetch of the canonical profile. It heals a
// PartiallyCommitted cache.
func (c *Coordinator) Refresh(ctx context.Context) (Result, error) {
	j := &job{req: domain.MutationRequest{ID: uuid.NewString()}, refresh: true, result: make(chan Result, 1)}
	return wait(ctx, c.enqueue(j))
}

// Close stops accepting requests, waits for queued ones to finish and stops the worker
func (c *Coordinator) Close() {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		<-c.done
		return
	}
	c.closed = true
	c.qmu.Unlock()
	c.signal()
	<-c.done
}

func wait(ctx context.Context, ch <-chan Result) (Result, error) {
	select {
	case res := <-ch:
		switch res.State {
		case domain.SyncCommitted, domain.SyncPartiallyCommitted:
			return res, nil
		default:
			return res, res.Err
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (c *Coordinator) enqueue(j *job) <-chan Result {
	c.qmu.Lock()
	if c.closed {
		c.qmu.Unlock()
		j.result <- Result{ID: j.req.ID, Request: j.req, State: domain.SyncIdle, Favorites: c.Favorites(), Err: domain.ErrCoordinatorClosed}
		return j.result
	}
	c.queue = append(c.queue, j)
	depth := len(c.queue)
	c.qmu.Unlock()

	c.logger.Debug("favorites request queued", "mutationID", j.req.ID, "kind", j.req.Kind, "itemID", j.req.ItemID, "refresh", j.refresh, "depth", depth)
	c.signal()
	return j.result
}

func (c *Coordinator) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest job, blocking until one arrives. Returns false once
// closed and drained.
func (c *Coordinator) next() (*job, bool) {
	for {
		c.qmu.Lock()
		if len(c.queue) > 0 {
			j := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.qmu.Unlock()
			return j, true
		}
		closed := c.closed
		c.qmu.Unlock()
		if closed {
			return nil, false
		}
		<-c.wake
	}
}

func (c *Coordinator) run() {
	defer close(c.done)
	for {
		j, ok := c.next()
		if !ok {
			return
		}
		var res Result
		if j.refresh {
			res = c.refresh(j.req)
		} else {
			res = c.execute(j.req)
		}
		c.setIdle()
		j.result <- res
	}
}

// === State machine ===

func (c *Coordinator) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.callTimeout)
}

// execute runs one mutation: Idle -> Pending -> Committed | RolledBack | PartiallyCommitted
func (c *Coordinator) execute(req domain.MutationRequest) Result {
	logger := c.logger.With("mutationID", req.ID, "kind", req.Kind, "itemID", req.ItemID)

	base := c.profile.Favorites
	next := req.Apply(base)
	c.publish(next, domain.SyncPending, req.ID, nil)

	ctx, cancel := c.callContext()
	echo, err := c.remote.PatchFavorites(ctx, c.profile.ID, next)
	cancel()
	if err != nil {
		logger.Warn("favorites patch failed, rolling back", "profileID", c.profile.ID, "error", err)
		c.publish(base, domain.SyncRolledBack, req.ID, err)
		return Result{ID: req.ID, Request: req, State: domain.SyncRolledBack, Favorites: base, Err: err}
	}

	var canonical *domain.Profile
	if c.trustPatch && echo != nil {
		canonical = echo
	} else {
		ctx, cancel := c.callContext()
		canonical, err = c.remote.FetchCanonicalProfile(ctx, c.profile.Username, c.profile.Secret)
		cancel()
		if err != nil {
			return c.partial(req, next, logger, fmt.Errorf("%w: re-fetch failed: %w", domain.ErrPartialCommit, err))
		}
	}

	if !canonical.Favorites.Equal(next) {
		logger.Warn("remote favorites diverge from patched set, using remote",
			"patched", next.IDs(),
			"remote", canonical.Favorites.IDs(),
		)
	}

	return c.commit(req, c.merge(*canonical), logger)
}

// refresh re-derives the profile from the remote record without mutating it
func (c *Coordinator) refresh(req domain.MutationRequest) Result {
	logger := c.logger.With("mutationID", req.ID, "refresh", true)

	ctx, cancel := c.callContext()
	canonical, err := c.remote.FetchCanonicalProfile(ctx, c.profile.Username, c.profile.Secret)
	cancel()
	if err != nil {
		logger.Warn("profile refresh failed", "profileID", c.profile.ID, "error", err)
		current := c.Favorites()
		c.publish(current, domain.SyncRolledBack, req.ID, err)
		return Result{ID: req.ID, Request: req, State: domain.SyncRolledBack, Favorites: current, Err: err}
	}

	return c.commit(req, c.merge(*canonical), logger)
}

// commit writes the canonical profile to the cache and publishes it.
// A failed cache write leaves the remote committed and the mirror stale.
func (c *Coordinator) commit(req domain.MutationRequest, profile domain.Profile, logger *slog.Logger) Result {
	if err := c.cache.WriteProfile(profile); err != nil {
		return c.partial(req, profile.Favorites, logger, fmt.Errorf("%w: cache write failed: %w", domain.ErrPartialCommit, err))
	}

	c.setProfile(profile)
	c.publish(profile.Favorites, domain.SyncCommitted, req.ID, nil)
	logger.Info("favorites committed", "profileID", profile.ID, "count", profile.Favorites.Len())
	return Result{ID: req.ID, Request: req, State: domain.SyncCommitted, Favorites: profile.Favorites}
}

// partial records a patch the remote accepted but the local mirror did not receive
func (c *Coordinator) partial(req domain.MutationRequest, set domain.FavoriteSet, logger *slog.Logger, warn error) Result {
	logger.Warn("favorites partially committed", "profileID", c.profile.ID, "error", warn)
	c.setProfile(c.profile.WithFavorites(set))
	c.publish(set, domain.SyncPartiallyCommitted, req.ID, warn)
	return Result{ID: req.ID, Request: req, State: domain.SyncPartiallyCommitted, Favorites: set, Err: warn}
}

// merge keeps the session credentials when the remote representation omits them
func (c *Coordinator) merge(p domain.Profile) domain.Profile {
	if p.ID != c.profile.ID {
		c.logger.Warn("remote profile id changed", "was", c.profile.ID, "now", p.ID)
	}
	if p.Username == "" {
		p.Username = c.profile.Username
	}
	if p.Secret == "" {
		p.Secret = c.profile.Secret
	}
	return p
}

func (c *Coordinator) setProfile(p domain.Profile) {
	c.profile = p
	c.mu.Lock()
	c.snapshot = p
	c.mu.Unlock()
}

func (c *Coordinator) setIdle() {
	c.mu.Lock()
	c.state = domain.SyncIdle
	c.mu.Unlock()
}

// publish updates the displayed set and notifies observers in subscription order
func (c *Coordinator) publish(set domain.FavoriteSet, state domain.SyncState, mutationID string, err error) {
	c.mu.Lock()
	c.displayed = set
	c.state = state
	observers := make([]domain.FavoritesObserver, 0, len(c.observers))
	for id := 0; id < c.nextObsID; id++ {
		if obs, ok := c.observers[id]; ok {
			observers = append(observers, obs)
		}
	}
	c.mu.Unlock()

	update := domain.FavoritesUpdate{Favorites: set, State: state, MutationID: mutationID, Err: err}
	for _, obs := range observers {
		obs.OnFavorites(update)
	}
}
