package offline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// populate opens the current cache and adds the whole manifest as one batch.
func (s *scope) populate(ctx context.Context) error {
	c, err := s.caches.Open(ctx, s.version)
	if err != nil {
		return fmt.Errorf("open cache %s: %w", s.version, err)
	}
	s.log.Debug("cache opened", zap.String("cache", s.version))
	return AddAll(ctx, c, s.network, s.manifest)
}

// evictStale deletes every cache whose name is not the current version, then
// claims all open clients. Deletions run concurrently.
func (s *scope) evictStale(ctx context.Context) error {
	names, err := s.caches.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list caches: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		if name == s.version {
			continue
		}
		g.Go(func() error {
			s.log.Info("deleting old cache", zap.String("cache", name))
			if _, err := s.caches.Delete(gctx, name); err != nil {
				return fmt.Errorf("delete cache %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	n := s.reg.Clients().Claim(ctx, s.version)
	s.log.Debug("clients claimed", zap.Int("count", n))
	return nil
}

// store writes a response clone into the current cache.
func (s *scope) store(ctx context.Context, req *Request, resp *Response) error {
	c, err := s.caches.Open(ctx, s.version)
	if err != nil {
		return err
	}
	return c.Put(ctx, req, resp)
}
