package features

import (
	"context"
	"net/http"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/cache"
)

// resource names a REST collection and the operations defined over it.
type resource struct {
	singular string // "LGA" -> getLGAById, createLGA
	plural   string // "LGAs" -> getAllLGAs
	path     string // "/lgas"
	noun     string // "LGA" in failure messages
}

// CRUD holds the five standard operations of a collection. In is the
// create payload, usually T itself.
type CRUD[T, In any] struct {
	GetAll  *cache.Operation[cache.None, []T]
	GetByID *cache.Operation[string, T]
	Create  *cache.Operation[In, T]
	Update  *cache.Operation[T, T]
	Delete  *cache.Operation[string, string]
}

// defineCRUD registers getAll<plural>, get<singular>ById, create<singular>,
// update<singular> and delete<singular> on f. idOf returns the ID an update
// is addressed to.
func defineCRUD[T, In any](f *cache.Feature, c *api.Client, r resource, idOf func(T) string) CRUD[T, In] {
	item := func(id string) string { return r.path + "/" + api.Segment(id) }

	return CRUD[T, In]{
		GetAll: cache.MustDefine(f, "getAll"+r.plural, func(ctx context.Context, _ cache.None) ([]T, error) {
			return api.Get[[]T](ctx, c, r.path, nil, "Failed to fetch "+r.noun+"s")
		}),
		GetByID: cache.MustDefine(f, "get"+r.singular+"ById", func(ctx context.Context, id string) (T, error) {
			return api.Get[T](ctx, c, item(id), nil, "Failed to fetch "+r.noun)
		}),
		Create: cache.MustDefine(f, "create"+r.singular, func(ctx context.Context, in In) (T, error) {
			return api.Send[T](ctx, c, http.MethodPost, r.path, in, "Failed to create "+r.noun)
		}),
		Update: cache.MustDefine(f, "update"+r.singular, func(ctx context.Context, in T) (T, error) {
			return api.Send[T](ctx, c, http.MethodPut, item(idOf(in)), in, "Failed to update "+r.noun)
		}),
		Delete: cache.MustDefine(f, "delete"+r.singular, func(ctx context.Context, id string) (string, error) {
			if err := c.SendJSON(ctx, http.MethodDelete, item(id), nil, nil, "Failed to delete "+r.noun); err != nil {
				return "", err
			}
			return id, nil
		}),
	}
}

// childrenOf defines an operation listing the items under one parent,
// e.g. getLGAsByState -> GET /states/{id}/lgas.
func childrenOf[T any](f *cache.Feature, c *api.Client, name, parentPath, childPath, noun string) *cache.Operation[string, []T] {
	return cache.MustDefine(f, name, func(ctx context.Context, parentID string) ([]T, error) {
		return api.Get[[]T](ctx, c, parentPath+"/"+api.Segment(parentID)+childPath, nil, "Failed to fetch "+noun)
	})
}
