package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/internal/memstore"
	"github.com/mesh-intelligence/motif/pkg/types"
)

// LoadResult reports what Load did.
type LoadResult struct {
	Store        types.GraphStore
	Components   int
	Compositions int
	Fallback     bool
}

// Load seeds store from cat. Seeding is idempotent: a populated store is left
// alone. When store is nil or unreachable, the catalog is loaded into a
// fresh in-memory store instead and the degradation is logged at warn.
func Load(ctx context.Context, store types.GraphStore, cat *Catalog, logger *zap.Logger) (LoadResult, error) {
	if cat == nil {
		return LoadResult{}, types.ErrCatalogMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if store != nil {
		res, err := seed(ctx, store, cat)
		if err == nil {
			logger.Debug("catalog loaded",
				zap.Int("components", res.Components),
				zap.Int("compositions", res.Compositions))
			return res, nil
		}
		var transient *types.TransientStoreError
		if !errors.As(err, &transient) && !errors.Is(err, types.ErrStoreClosed) {
			return LoadResult{}, err
		}
		logger.Warn("graph store unavailable, serving catalog from memory", zap.Error(err))
	}

	res, err := seed(ctx, memstore.New(), cat)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loading in-memory catalog: %w", err)
	}
	res.Fallback = true
	return res, nil
}

func seed(ctx context.Context, store types.GraphStore, cat *Catalog) (LoadResult, error) {
	n, err := store.Seed(ctx, cat.Components)
	if err != nil {
		return LoadResult{}, fmt.Errorf("seeding components: %w", err)
	}
	m, err := store.SeedCompositions(ctx, cat.Compositions)
	if err != nil {
		return LoadResult{}, fmt.Errorf("seeding compositions: %w", err)
	}
	return LoadResult{Store: store, Components: n, Compositions: m}, nil
}
