package folders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ghive/ghive/internal/drive"
)

// flightKey is the single singleflight key: a Resolver computes one result.
const flightKey = "allowed"

// Resolver computes the allowed-folder set for a fixed root allow-list on
// first demand and caches it. It moves through three states: unresolved,
// in flight (callers arriving now wait for the same build), and resolved
// (callers get the cached set). A failed build is not cached.
//
// Scope one Resolver to one run.
type Resolver struct {
	lister drive.PageLister
	roots  []string
	logger *slog.Logger

	flight singleflight.Group

	mu       sync.Mutex
	resolved bool
	allowed  FolderSet
}

// NewResolver returns a Resolver for roots. Duplicate and empty root ids are
// dropped.
func NewResolver(lister drive.PageLister, roots []string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		lister: lister,
		roots:  dedupe(roots),
		logger: logger,
	}
}

// Allowed returns the set of allowed folder ids: the roots and all their
// descendants. With no roots it returns the empty "unrestricted" set without
// listing anything.
func (r *Resolver) Allowed(ctx context.Context) (FolderSet, error) {
	if allowed, ok := r.cached(); ok {
		return allowed, nil
	}

	v, err, shared := r.flight.Do(flightKey, func() (any, error) {
		// A flight that finished between cached() and Do() already stored it.
		if allowed, ok := r.cached(); ok {
			return allowed, nil
		}

		allowed, err := r.resolve(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.allowed = allowed
		r.resolved = true
		r.mu.Unlock()

		return allowed, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		r.logger.Debug("joined in-flight folder resolution")
	}

	return v.(FolderSet), nil
}

func (r *Resolver) cached() (FolderSet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.allowed, r.resolved
}

func (r *Resolver) resolve(ctx context.Context) (FolderSet, error) {
	if len(r.roots) == 0 {
		r.logger.Info("no root folders configured, folder restriction disabled")
		return FolderSet{}, nil
	}

	r.logger.Info("indexing folders",
		slog.Int("roots", len(r.roots)),
	)

	// Index the whole corpus before walking so the result does not depend on
	// listing order and the walk itself issues no requests.
	idx, err := BuildChildIndex(drive.Paginate(ctx, r.lister, Query, r.logger))
	if err != nil {
		return nil, fmt.Errorf("folders: listing folders: %w", err)
	}

	allowed := idx.Closure(r.roots)

	r.logger.Info("resolved allowed folders",
		slog.Int("parents", len(idx)),
		slog.Int("edges", idx.Edges()),
		slog.Int("allowed", len(allowed)),
	)

	return allowed, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}

		seen[id] = true
		out = append(out, id)
	}

	return out
}
