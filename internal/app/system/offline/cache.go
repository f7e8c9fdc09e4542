package offline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Cache is one named cache: request identity to response snapshot.
// Writes are last-write-wins; implementations serialize their own operations.
type Cache interface {
	// Match returns the stored response for req, or ErrNotFound.
	Match(ctx context.Context, req *Request) (*Response, error)
	// Put stores resp under req, replacing any previous entry.
	Put(ctx context.Context, req *Request, resp *Response) error
	// Delete removes req and reports whether an entry existed.
	Delete(ctx context.Context, req *Request) (bool, error)
	// Keys lists stored requests in insertion order.
	Keys(ctx context.Context) ([]*Request, error)
}

// CacheStorage is the set of named caches available to the worker.
type CacheStorage interface {
	// Open returns the named cache, creating it if absent.
	Open(ctx context.Context, name string) (Cache, error)
	Has(ctx context.Context, name string) (bool, error)
	// Delete removes the named cache and everything in it.
	Delete(ctx context.Context, name string) (bool, error)
	// Keys lists cache names in creation order.
	Keys(ctx context.Context) ([]string, error)
}

// MatchAll looks req up in every cache, in creation order, and returns the
// first hit.
func MatchAll(ctx context.Context, storage CacheStorage, req *Request) (*Response, error) {
	names, err := storage.Keys(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		c, err := storage.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		resp, err := c.Match(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// AddAll fetches every request and stores the results only when all of them
// succeeded with a 2xx status. A single failure leaves the cache untouched.
func AddAll(ctx context.Context, c Cache, network Fetcher, reqs []*Request) error {
	resps := make([]*Response, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := network.Fetch(gctx, req.Clone())
			if err != nil {
				return fmt.Errorf("%w: fetch %s: %v", ErrBatchFailed, req.URL, err)
			}
			if !resp.OK() {
				return fmt.Errorf("%w: %s returned %d", ErrBatchFailed, req.URL, resp.Status)
			}
			resps[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, req := range reqs {
		if err := c.Put(ctx, req, resps[i]); err != nil {
			return fmt.Errorf("%w: store %s: %v", ErrBatchFailed, req.URL, err)
		}
	}
	return nil
}
