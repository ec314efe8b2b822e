package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fixedQueue int64

func (q fixedQueue) Pending(context.Context) (int64, error) { return int64(q), nil }

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	r := gin.New()
	r.GET("/healthy", NewSystemHandler(map[string]Probe{"postgres": ok, "redis": ok}, fixedQueue(4), zerolog.Nop()).Health)
	r.GET("/degraded", NewSystemHandler(map[string]Probe{"postgres": ok, "redis": down}, nil, zerolog.Nop()).Health)

	w := doJSON(t, r, "GET", "/healthy", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"stats_queue":4`)

	w = doJSON(t, r, "GET", "/degraded", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}
