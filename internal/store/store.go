// Package store is the single authority for where the current database
// image lives and how it stays durable.
//
// A Store owns one embedded engine bound to the local cache file. It
// materializes the image lazily on first access (local cache, then remote
// fetch, then bootstrap) and re-persists the full image after every
// mutation. The image is one indivisible blob: there is no incremental
// persistence.
//
// Known consistency gap: independent process instances share one remote
// blob with no distributed lock. Two instances can load the same version,
// mutate independently, and race to upload; the loser's stale token is
// rejected and its changes remain local-only until a later successful
// upload. Within one process the Store serializes all access with a mutex.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/lk9900/pojedi/internal/engine"
	"github.com/lk9900/pojedi/internal/github"
	"github.com/lk9900/pojedi/internal/metrics"
	"github.com/lk9900/pojedi/internal/schema"
)

// Mode selects one of the two persistence strategies, chosen at startup.
type Mode string

const (
	// ModeLocal keeps the image in the local file only. No remote traffic.
	ModeLocal Mode = "local"

	// ModeGitHub treats the local file as an ephemeral cache and syncs the
	// image to the remote blob store after every mutation.
	ModeGitHub Mode = "github"
)

// RemoteClient is the remote blob store surface the Store depends on.
// Satisfied by *github.Client; faked in tests.
type RemoteClient interface {
	Fetch(ctx context.Context) (*github.Blob, error)
	Put(ctx context.Context, content []byte, prevSHA string) (string, error)
	Head(ctx context.Context) (string, error)
}

// Config addresses the local cache file and selects the strategy.
type Config struct {
	// CachePath is where the image lives on local disk. In ModeGitHub this
	// is scratch storage, not a durability guarantee.
	CachePath string

	// Mode is the persistence strategy.
	Mode Mode
}

// Store coordinates the engine, the local cache file, and the remote store.
//
// All entry points serialize on an internal mutex: the in-memory image has
// exactly one owner and no two goroutines may mutate it concurrently.
type Store struct {
	mu sync.Mutex

	cfg    Config
	logger *slog.Logger
	remote RemoteClient

	engine *engine.Engine
	token  string
	ready  bool

	onPersist func(Durability)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRemote injects the remote client. Required in ModeGitHub.
func WithRemote(remote RemoteClient) Option {
	return func(s *Store) { s.remote = remote }
}

// WithPersistHook registers a callback invoked with the outcome of every
// persist step. Used by tests to observe durability degradation, which is
// otherwise invisible to callers.
func WithPersistHook(hook func(Durability)) Option {
	return func(s *Store) { s.onPersist = hook }
}

// Open constructs a Store. The image is not materialized until first use.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if cfg.CachePath == "" {
		return nil, fmt.Errorf("open store: cache path is required")
	}

	s := &Store{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Mode == ModeGitHub && s.remote == nil {
		return nil, fmt.Errorf("open store: github mode requires a remote client")
	}
	if cfg.Mode == ModeLocal {
		s.remote = nil
	}

	return s, nil
}

// Close releases the engine. The local cache file is left in place.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return nil
	}
	err := s.engine.Close()
	s.engine = nil
	s.ready = false
	return err
}

// Query runs a read statement against the materialized image.
func (s *Store) Query(ctx context.Context, stmt string, args ...any) ([]engine.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(ctx); err != nil {
		return nil, err
	}
	return s.engine.Query(ctx, stmt, args...)
}

// Execute runs a mutating statement and persists the image before
// returning. By the time the caller observes success the mutation is
// durable to the configured store, or to the local cache only if the
// remote write failed. Persistence failures are logged and counted but
// never surfaced here; availability of the serving path wins over strict
// durability. Statement-level failures do surface.
func (s *Store) Execute(ctx context.Context, stmt string, args ...any) (engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureReady(ctx); err != nil {
		return engine.Result{}, err
	}

	res, err := s.engine.Execute(ctx, stmt, args...)
	if err != nil {
		return engine.Result{}, err
	}
	metrics.StoreMutationsTotal.Inc()

	outcome := s.persist(ctx)
	metrics.StorePersistTotal.WithLabelValues(outcome.label()).Inc()
	if s.onPersist != nil {
		s.onPersist(outcome)
	}

	return res, nil
}

// ensureReady materializes the image on first access.
//
// Acquisition order:
//  1. Local cache file present: trust it as newest for this execution
//     context and load it.
//  2. Remote fetch (ModeGitHub): found → seed the cache and capture the
//     token; not found → bootstrap; any other failure → log and bootstrap
//     with a fresh image rather than block startup.
//  3. Bootstrap: fresh empty image, schema applied. No remote write is
//     forced here; the first mutation performs the first upload.
func (s *Store) ensureReady(ctx context.Context) error {
	if s.ready {
		return nil
	}

	if _, err := os.Stat(s.cfg.CachePath); err == nil {
		eng, err := engine.Open(s.cfg.CachePath)
		if err != nil {
			return fmt.Errorf("open cached image: %w", err)
		}
		s.engine = eng
		s.ready = true
		s.logger.Info("loaded image from local cache", "path", s.cfg.CachePath)
		return nil
	}

	if s.remote != nil {
		blob, err := s.remote.Fetch(ctx)
		switch {
		case err != nil:
			// Degrade to a fresh image rather than refuse to start. If the
			// remote copy exists, its rows resurface once it is reachable
			// again, but writes made meanwhile can clobber it.
			s.logger.Error("remote fetch failed, bootstrapping fresh image", "error", err)
		case blob == nil:
			s.logger.Info("no remote image found, bootstrapping")
		default:
			if err := os.WriteFile(s.cfg.CachePath, blob.Content, 0o600); err != nil {
				return fmt.Errorf("write cache file: %w", err)
			}
			eng, err := engine.Open(s.cfg.CachePath)
			if err != nil {
				return fmt.Errorf("open fetched image: %w", err)
			}
			s.engine = eng
			s.token = blob.SHA
			s.ready = true
			s.logger.Info("loaded image from remote store",
				"bytes", len(blob.Content), "token", blob.SHA)
			return nil
		}
	}

	return s.bootstrap(ctx)
}

// bootstrap creates a fresh empty image and applies the schema.
func (s *Store) bootstrap(ctx context.Context) error {
	eng, err := engine.Open(s.cfg.CachePath)
	if err != nil {
		return fmt.Errorf("bootstrap image: %w", err)
	}
	if err := schema.Apply(ctx, eng); err != nil {
		eng.Close()
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	s.engine = eng
	s.ready = true
	s.logger.Info("bootstrapped fresh image", "path", s.cfg.CachePath)
	return nil
}
