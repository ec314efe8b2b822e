package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pupilnest/pupilnest-backend/internal/config"
	"github.com/pupilnest/pupilnest-backend/internal/response"
	ws "github.com/pupilnest/pupilnest-backend/internal/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// ResultFeed delivers raw graded-result events until ctx ends or close is called.
type ResultFeed interface {
	Subscribe(ctx context.Context) (<-chan []byte, func() error, error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams graded results to teacher displays.
type WSHandler struct {
	feed     ResultFeed
	token    string
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. An empty token disables the feed.
func NewWSHandler(feed ResultFeed, token string, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		feed:     feed,
		token:    token,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ResultsFeed godoc
// WS /ws/results?token=
// Pushes every graded result as {"event":"result","data":{...}}.
func (h *WSHandler) ResultsFeed(c *gin.Context) {
	if h.token == "" {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	given := c.Query("token")
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, closeFeed, err := h.feed.Subscribe(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Results feed subscription failed")
		ws.WriteError(conn, "results feed unavailable")
		return
	}
	defer closeFeed()

	readDone := make(chan struct{})
	go ws.DrainReads(conn, pongWait, readDone)

	if err := ws.WriteTyped(conn, ws.HelloMessage{Event: ws.EventHello, Channel: config.CacheKey.ResultFeedChannel()}); err != nil {
		return
	}

	h.log.Info().Str("remote", c.ClientIP()).Msg("Results feed attached")
	defer h.log.Info().Str("remote", c.ClientIP()).Msg("Results feed detached")

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case payload, ok := <-events:
			if !ok {
				ws.WriteError(conn, "results feed closed")
				return
			}
			if err := ws.WriteResult(conn, payload); err != nil {
				h.log.Debug().Err(err).Msg("Results feed write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
