package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kavelar/moviemind/domains/discovery"
	"github.com/kavelar/moviemind/pkg/utils"
)

// HealthStatus is the liveness view: overall status plus the two
// dependencies a content fetch needs.
type HealthStatus struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Provider     string `json:"provider"`
	CacheBackend string `json:"cache_backend"`
	Cache        string `json:"cache"`
	Uptime       string `json:"uptime"`
}

type Health struct {
	Store    discovery.ContentStore
	Provider string
	Backend  string
	Version  string
	started  time.Time
}

func InitRestHealth(app fiber.Router, store discovery.ContentStore, provider, backend, version string) Health {
	handler := Health{
		Store:    store,
		Provider: provider,
		Backend:  backend,
		Version:  version,
		started:  time.Now(),
	}
	app.Get("/health", handler.GetStatus)
	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	status := HealthStatus{
		Status:       "ok",
		Version:      h.Version,
		Provider:     h.Provider,
		CacheBackend: h.Backend,
		Cache:        "ok",
		Uptime:       time.Since(h.started).Round(time.Second).String(),
	}

	if err := h.Store.Ping(c.UserContext()); err != nil {
		status.Status = "degraded"
		status.Cache = err.Error()
		return c.Status(503).JSON(utils.ResponseData{
			Status:  503,
			Code:    "SERVICE_UNAVAILABLE",
			Message: "Cache backend unreachable",
			Results: status,
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Service healthy",
		Results: status,
	})
}
