// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// NewHooks wires the app into WAFFLE's lifecycle. The gateway built by
// Startup is held by the returned hooks, so each call gets its own.
func NewHooks() app.Hooks[AppConfig, DBDeps] {
	lc := &lifecycle{}
	return app.Hooks[AppConfig, DBDeps]{
		Name:           "storymaker",
		LoadConfig:     LoadConfig,
		ValidateConfig: ValidateConfig,
		ConnectDB:      ConnectDB,
		EnsureSchema:   EnsureSchema,
		Startup:        lc.Startup,
		BuildHandler:   lc.BuildHandler,
		Shutdown:       lc.Shutdown,
	}
}
