// Package registry is the process-wide pool store the spec calls out
// as a collaborator of the core but leaves out of scope: it maps
// opaque handles to *pool.Pool managers, enforces init/shutdown
// discipline, and wraps each lifecycle operation with metrics and
// tracing so the single-threaded core never has to know either exists.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/segmentlab/mempool/config"
	"github.com/segmentlab/mempool/inspect"
	"github.com/segmentlab/mempool/internal/mplog"
	"github.com/segmentlab/mempool/pool"
)

var (
	log    = mplog.Logger("mempool/registry")
	tracer = otel.Tracer("github.com/segmentlab/mempool/registry")
)

// PoolHandle identifies a pool opened through a Registry. It is
// distinct from pool.Handle, which identifies one allocation within a
// pool; PoolHandle identifies the pool itself.
type PoolHandle uuid.UUID

// String renders the handle the way every other UUID-keyed identifier
// in the corpus is logged.
func (h PoolHandle) String() string { return uuid.UUID(h).String() }

// Registry is a process-wide store of open pools. The zero value is
// not usable; construct with New.
type Registry struct {
	mu    sync.Mutex
	pools map[PoolHandle]*pool.Pool
	m     *metrics
}

var (
	globalMu sync.Mutex
	global   *Registry
)

// Init creates the process-wide registry. Calling Init twice without
// an intervening Shutdown returns ErrAlreadyInitialized.
func Init() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return pool.ErrAlreadyInitialized
	}

	global = New()
	log.Debug("registry initialized")

	return nil
}

// Shutdown tears down the process-wide registry. It fails with
// ErrLeaked if any pool is still open.
func Shutdown() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return pool.ErrNotInitialized
	}

	if n := global.openCount(); n > 0 {
		return errors.Wrapf(pool.ErrLeaked, "%d pool(s) still open", n)
	}

	global = nil
	log.Debug("registry shut down")

	return nil
}

// Global returns the process-wide registry, or ErrNotInitialized
// before Init.
func Global() (*Registry, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil, pool.ErrNotInitialized
	}

	return global, nil
}

// New creates a standalone registry, independent of the process-wide
// one reached via Init/Global. Most callers want Init instead; New
// exists for tests and for embedders that want several independent
// registries in one process.
func New() *Registry {
	return &Registry{
		pools: map[PoolHandle]*pool.Pool{},
		m:     newMetrics(),
	}
}

func (r *Registry) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.pools)
}

// Open acquires a new pool of size bytes under opts and registers it,
// returning a handle callers use for every subsequent operation.
func (r *Registry) Open(ctx context.Context, size uint64, opts pool.Options) (PoolHandle, error) {
	_, span := tracer.Start(ctx, "Registry.Open", trace.WithAttributes())
	defer span.End()

	p, err := pool.Open(size, opts)
	if err != nil {
		return PoolHandle{}, err
	}

	h := PoolHandle(uuid.New())

	r.mu.Lock()
	r.pools[h] = p
	r.mu.Unlock()

	r.m.poolsOpen.Inc()
	r.m.observe(h.String(), p.Stats())
	log.Debugw("pool opened", "handle", h.String(), "size", size, "policy", opts.Policy.String())

	return h, nil
}

// OpenWithTuning is Open for a caller holding a config.Tuning document
// (typically loaded with config.Load) instead of a pool.Options value,
// letting an operator driving many pools through the registry adjust
// growth behavior without recompiling.
func (r *Registry) OpenWithTuning(ctx context.Context, size uint64, policy pool.Policy, t config.Tuning) (PoolHandle, error) {
	opts, err := t.PoolOptions(policy)
	if err != nil {
		return PoolHandle{}, err
	}

	return r.Open(ctx, size, opts)
}

// Close closes the pool named by h and removes it from the registry.
func (r *Registry) Close(ctx context.Context, h PoolHandle) error {
	_, span := tracer.Start(ctx, "Registry.Close")
	defer span.End()

	p, err := r.lookup(h)
	if err != nil {
		return err
	}

	if err := p.Close(); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.pools, h)
	r.mu.Unlock()

	r.m.poolsOpen.Dec()
	r.m.forget(h.String())
	log.Debugw("pool closed", "handle", h.String())

	return nil
}

// Allocate reserves n bytes from the pool named by h.
func (r *Registry) Allocate(ctx context.Context, h PoolHandle, n uint64) (pool.Handle, error) {
	_, span := tracer.Start(ctx, "Registry.Allocate")
	defer span.End()

	p, err := r.lookup(h)
	if err != nil {
		return pool.Handle{}, err
	}

	ah, err := p.Allocate(n)
	if err != nil {
		return pool.Handle{}, err
	}

	r.m.observe(h.String(), p.Stats())

	return ah, nil
}

// Release returns an allocation made with Allocate to the pool named
// by h.
func (r *Registry) Release(ctx context.Context, h PoolHandle, ah pool.Handle) error {
	_, span := tracer.Start(ctx, "Registry.Release")
	defer span.End()

	p, err := r.lookup(h)
	if err != nil {
		return err
	}

	if err := p.Release(ah); err != nil {
		return err
	}

	r.m.observe(h.String(), p.Stats())

	return nil
}

// Stats returns the current counters of the pool named by h.
func (r *Registry) Stats(h PoolHandle) (pool.Stats, error) {
	p, err := r.lookup(h)
	if err != nil {
		return pool.Stats{}, err
	}

	return p.Stats(), nil
}

// Segments returns the address-ordered segment snapshot of the pool
// named by h, for the inspect package to render.
func (r *Registry) Segments(h PoolHandle) ([]pool.SegmentView, error) {
	p, err := r.lookup(h)
	if err != nil {
		return nil, err
	}

	return p.Segments(), nil
}

// Pretty renders a human-readable debug dump of the pool named by h
// via the inspect package.
func (r *Registry) Pretty(h PoolHandle) (string, error) {
	p, err := r.lookup(h)
	if err != nil {
		return "", err
	}

	return inspect.Pretty(p), nil
}

func (r *Registry) lookup(h PoolHandle) (*pool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[h]
	if !ok {
		return nil, errors.Wrapf(pool.ErrBadHandle, "no such pool %v", h)
	}

	return p, nil
}
