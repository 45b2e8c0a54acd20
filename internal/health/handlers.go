package health

import (
	"context"

	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/middleware"
	"github.com/emrahbadas00-lgtm/pazarglobal-agent-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Handlers serves the health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	Supabase       SupabasePinger
	HealthAdminKey string
}

// JSON returns the full health snapshot.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := CollectHealth(context.Background(), h.Rdb, h.Supabase)
	return c.JSON(result)
}

// Reset zeroes the traffic counters. Requires the admin key when configured.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if h.HealthAdminKey != "" && c.Query("key") != h.HealthAdminKey {
		return response.Error(c, "Forbidden", fiber.StatusForbidden, nil)
	}
	if h.Rdb != nil {
		ctx := context.Background()
		h.Rdb.Del(ctx,
			middleware.KeyReqTotal,
			middleware.KeyReqErrors,
			middleware.KeyResTime,
			middleware.KeyResCount,
			middleware.KeyStartTime,
			middleware.KeyLastReq,
			middleware.KeyErrorLog,
		)
	}
	return response.Success(c, "health counters reset", nil, nil)
}

// Errors returns the recent error log entries.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Rdb == nil {
		return c.JSON([]string{})
	}
	entries, err := h.Rdb.LRange(context.Background(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		entries = []string{}
	}
	return c.JSON(entries)
}
