package jellyfin

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Catalog is the part of Client the resolver needs.
type Catalog interface {
	GetItem(ctx context.Context, id string) (Item, error)
	GetSeasons(ctx context.Context, seriesID string) ([]*Season, error)
	GetEpisodes(ctx context.Context, seriesID, seasonID string) ([]*Episode, error)
}

// Resolver expands any item into the leaves beneath it.
type Resolver struct {
	Catalog Catalog
	// OnFetch, if set, is called once per fetched item. Calls may be concurrent.
	OnFetch func(Item)
}

// NewResolver creates a Resolver over c.
func NewResolver(c Catalog) *Resolver {
	return &Resolver{Catalog: c}
}

// Resolve returns the movies and episodes under id, in catalog listing order.
// Children are resolved concurrently; the first failure cancels the rest and
// is returned once all of them have stopped.
func (r *Resolver) Resolve(ctx context.Context, id string) ([]Leaf, error) {
	item, err := r.Catalog.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.OnFetch != nil {
		r.OnFetch(item)
	}

	switch it := item.(type) {
	case *Movie:
		return []Leaf{it}, nil
	case *Episode:
		return []Leaf{it}, nil
	case *Season:
		episodes, err := r.Catalog.GetEpisodes(ctx, it.SeriesID, it.ID)
		if err != nil {
			return nil, err
		}
		return r.resolveAll(ctx, lo.Map(episodes, func(e *Episode, _ int) string { return e.ID }))
	case *Series:
		seasons, err := r.Catalog.GetSeasons(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		return r.resolveAll(ctx, lo.Map(seasons, func(s *Season, _ int) string { return s.ID }))
	default:
		return nil, &UnknownItemTypeError{ID: id, Type: string(item.ItemInfo().Type)}
	}
}

func (r *Resolver) resolveAll(ctx context.Context, ids []string) ([]Leaf, error) {
	results := make([][]Leaf, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			leaves, err := r.Resolve(gctx, id)
			if err != nil {
				return err
			}
			results[i] = leaves
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Flatten(results), nil
}
