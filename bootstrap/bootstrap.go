package bootstrap

import (
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/app"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deploys (the api handler imports
// this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fiberApp, _, err := app.CreateApp(cfg)
	return fiberApp, err
}
