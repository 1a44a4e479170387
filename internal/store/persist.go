package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lk9900/pojedi/internal/github"
	"github.com/lk9900/pojedi/internal/metrics"
)

// Durability classifies the outcome of one persist step.
type Durability int

const (
	// Durable means the image reached the configured durable store: the
	// remote blob store in ModeGitHub, the local file in ModeLocal.
	Durable Durability = iota

	// LocalOnly means the local cache holds the mutation but the remote
	// upload failed. The cache is the only copy until a later mutation's
	// upload succeeds.
	LocalOnly

	// Failed means not even the image snapshot could be read back. The
	// mutation exists in the running engine only.
	Failed
)

// String implements fmt.Stringer.
func (d Durability) String() string {
	switch d {
	case Durable:
		return "durable"
	case LocalOnly:
		return "local-only"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Durability(%d)", int(d))
	}
}

func (d Durability) label() string {
	switch d {
	case Durable:
		return metrics.Durable
	case LocalOnly:
		return metrics.LocalOnly
	default:
		return metrics.Failed
	}
}

// persist pushes the current image toward durability and classifies how far
// it got. Failures are logged here and absorbed; the caller only decides
// what to do with the outcome. Caller holds s.mu.
func (s *Store) persist(ctx context.Context) Durability {
	image, err := s.engine.Snapshot()
	if err != nil {
		// The engine's own write to the cache file failed underneath us.
		// The mutation lives on in memory, so same-process reads still see
		// it; nothing survived to disk.
		s.logger.Error("image snapshot failed, mutation is in-memory only", "error", err)
		return Failed
	}
	metrics.StoreImageBytes.Set(float64(len(image)))

	if s.remote == nil {
		return Durable
	}

	// Startup path 1 loads from the cache without a remote read, so the
	// token can be unknown here. Resolve it once; 404 means first-ever
	// write and create semantics.
	if s.token == "" {
		sha, err := s.timedHead(ctx)
		if err != nil {
			s.logger.Warn("token resolution failed, attempting create", "error", err)
		} else {
			s.token = sha
		}
	}

	newToken, err := s.timedPut(ctx, image)
	if err != nil {
		if github.IsStaleToken(err) {
			s.logger.Warn("remote rejected stale token, concurrent writer won",
				"token", s.token, "error", err)
		} else {
			s.logger.Warn("remote upload failed, image is local-only", "error", err)
		}
		// Token deliberately unchanged: a later persist retries with it.
		return LocalOnly
	}

	s.token = newToken
	s.logger.Debug("image uploaded", "bytes", len(image), "token", newToken)
	return Durable
}

// Pull fetches the remote image into the local cache, replacing whatever the
// engine currently holds. Used by the pull CLI command to reconcile a
// diverged instance by hand.
func (s *Store) Pull(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote == nil {
		return fmt.Errorf("pull: no remote store configured")
	}

	blob, err := s.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	if blob == nil {
		return fmt.Errorf("pull: no remote image exists")
	}

	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			return fmt.Errorf("pull: close engine: %w", err)
		}
		s.engine = nil
		s.ready = false
	}

	if err := writeCache(s.cfg.CachePath, blob.Content); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	s.token = blob.SHA
	s.logger.Info("pulled remote image", "bytes", len(blob.Content), "token", blob.SHA)
	return nil
}

// Push uploads the current image unconditionally and reports the outcome.
// Unlike the post-mutation persist, callers see the error.
func (s *Store) Push(ctx context.Context) (Durability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote == nil {
		return Failed, fmt.Errorf("push: no remote store configured")
	}
	if err := s.ensureReady(ctx); err != nil {
		return Failed, err
	}

	image, err := s.engine.Snapshot()
	if err != nil {
		return Failed, fmt.Errorf("push: %w", err)
	}

	if s.token == "" {
		sha, err := s.timedHead(ctx)
		if err != nil {
			return LocalOnly, fmt.Errorf("push: resolve token: %w", err)
		}
		s.token = sha
	}

	newToken, err := s.timedPut(ctx, image)
	if err != nil {
		return LocalOnly, fmt.Errorf("push: %w", err)
	}
	s.token = newToken
	return Durable, nil
}

func (s *Store) timedPut(ctx context.Context, image []byte) (string, error) {
	start := time.Now()
	token, err := s.remote.Put(ctx, image, s.token)
	instrumentRemoteOp("put", start, err)
	return token, err
}

func (s *Store) timedHead(ctx context.Context) (string, error) {
	start := time.Now()
	sha, err := s.remote.Head(ctx)
	instrumentRemoteOp("head", start, err)
	return sha, err
}

func instrumentRemoteOp(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "fail"
	}
	metrics.RemoteRequestDuration.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}

func writeCache(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}
