package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const probeTimeout = 2 * time.Second

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// QueueDepth reports how many items wait in a background queue.
type QueueDepth interface {
	Pending(ctx context.Context) (int64, error)
}

// SystemHandler reports liveness of the server and its dependencies.
type SystemHandler struct {
	probes    map[string]Probe
	queue     QueueDepth
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a SystemHandler. queue may be nil.
func NewSystemHandler(probes map[string]Probe, queue QueueDepth, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		probes:    probes,
		queue:     queue,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status     string            `json:"status"`
	Uptime     string            `json:"uptime"`
	Goroutines int               `json:"goroutines"`
	Checks     map[string]string `json:"checks"`
	StatsQueue *int64            `json:"stats_queue,omitempty"`
}

// Health godoc
// GET /health
// Responds 503 when any dependency probe fails.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
	defer cancel()

	report := healthReport{
		Status:     "ok",
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     make(map[string]string, len(h.probes)),
	}

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		if err := h.probes[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health probe failed")
			report.Checks[name] = "down"
			report.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		report.Checks[name] = "ok"
	}

	if h.queue != nil {
		if n, err := h.queue.Pending(ctx); err == nil {
			report.StatsQueue = &n
		}
	}

	c.JSON(status, report)
}
