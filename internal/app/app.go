package app

import (
	"net/http"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/agent"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/config"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/draft"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/health"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/llm"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/middleware"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/search"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/searchcache"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/session"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/speech"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/supabase"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/vision"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/wallet"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
)

// CreateApp builds the Fiber app with all global middleware and routes.
func CreateApp(cfg *config.Config) (*fiber.App, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)

	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.RateLimit(rdb, cfg.RateLimitPerMinute))

	supa := &supabase.Client{
		BaseURL:    cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Bucket:     cfg.SupabaseBucket,
	}
	llmClient := &llm.Client{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL}

	sessions := &session.Sessions{Store: &session.RedisStore{Rdb: rdb}}
	cache := &searchcache.Cache{Sessions: sessions}

	gate := &vision.Gate{
		Classifier: &vision.OpenAIClassifier{LLM: llmClient, Model: cfg.VisionModel},
		Sessions:   sessions,
		Flags:      supa,
		ResolveURL: supa.PublicImageURL,
	}

	orchestrator := &workflow.Orchestrator{
		Profiles:  supa,
		Gate:      gate,
		Router:    &llm.Router{LLM: llmClient, Model: cfg.RouterModel},
		Extractor: &llm.Extractor{LLM: llmClient, Model: cfg.ExtractorModel},
		Drafts:    &draft.Service{Store: supa, Publisher: supa},
		Search:    &search.Composer{Listings: supa, Cache: cache},
		Wallet:    &wallet.Service{Wallets: supa},
		Listings:  supa,
		Sessions:  sessions,
		Cache:     cache,
	}

	agentHandlers := &agent.Handlers{
		Runner: orchestrator,
		Speech: &speech.Corrector{LLM: llmClient, Model: cfg.SpeechModel},
	}
	app.Post("/agent/run", agentHandlers.Run)
	app.Post("/web-chat", agentHandlers.WebChat)
	app.Post("/correct-speech", agentHandlers.CorrectSpeech)

	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		Supabase:       supa,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "pazarglobal-agent", "status": "ok"})
	})
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)
	app.Get("/reset", healthHandlers.Reset)

	return app, rdb, nil
}

// Handler returns the Fiber app as a net/http handler (serverless entry).
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
