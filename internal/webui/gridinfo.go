package webui

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
)

const gridInfoKey = "gridinfo"

// GridInfoCache holds the grid info object once it has been fetched. The grid
// info rarely changes, so a cache is usually scoped to a process or a single
// request. Failed fetches are not cached.
type GridInfoCache struct {
	mu    sync.Mutex
	info  models.Object
	group singleflight.Group
}

// NewGridInfoCache returns an empty cache.
func NewGridInfoCache() *GridInfoCache {
	return &GridInfoCache{}
}

// Get returns the cached info, calling fetch when nothing is cached yet.
// Concurrent callers share one fetch. A caller whose ctx ends while waiting
// returns at once; the shared fetch carries on for the others.
func (c *GridInfoCache) Get(ctx context.Context, fetch func(context.Context) (models.Object, error)) (models.Object, error) {
	if info := c.cached(); info != nil {
		return info, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(gridInfoKey, func() (interface{}, error) {
		if info := c.cached(); info != nil {
			return info, nil
		}
		info, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.info = info
		c.mu.Unlock()
		return info, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(models.Object), nil
	case <-ctx.Done():
		return nil, errors.NewTransportError("gave up waiting for grid info", ctx.Err())
	}
}

func (c *GridInfoCache) cached() models.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// Reset drops the cached info.
func (c *GridInfoCache) Reset() {
	c.mu.Lock()
	c.info = nil
	c.mu.Unlock()
}
