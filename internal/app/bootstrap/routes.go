// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"errors"
	"net/http"

	healthfeature "github.com/dalemusser/storymaker/internal/app/features/health"
	offlinegwfeature "github.com/dalemusser/storymaker/internal/app/features/offlinegw"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the gateway.
//
// WAFFLE calls this after Startup, so the worker is already installed. The
// health check is mounted first; everything else goes to the gateway, which
// exposes its own endpoints under /_sw and intercepts every other path.
func (lc *lifecycle) BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	gw := lc.current()
	if gw == nil {
		return nil, errors.New("offline worker not started")
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	clients, err := offlinegwfeature.NewClientSessions(appCfg.ClientCookieKey, secure, gw.runtime.Registration().Clients(), logger)
	if err != nil {
		logger.Error("client cookie init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(gw.runtime, appCfg.CacheStore, backendPinger(deps), logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	gwHandler := offlinegwfeature.NewHandler(gw.runtime, deps.Caches, gw.fetcher, clients, gw.origin, logger)
	r.Mount("/", offlinegwfeature.Routes(gwHandler))

	return r, nil
}

// backendPinger returns the connectivity check for the configured backend.
func backendPinger(deps DBDeps) healthfeature.Pinger {
	switch {
	case deps.MongoClient != nil:
		return func(ctx context.Context) error { return deps.MongoClient.Ping(ctx, readpref.Primary()) }
	case deps.SQLite != nil:
		return deps.SQLite.Ping
	case deps.Redis != nil:
		return func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}
	return nil
}
