package hostharness

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oneclient/core-go/internal/obslog"
)

// ServerOptions configures the gin engine NewServer builds.
type ServerOptions struct {
	FixturesPath  string
	WebsocketPath string
}

// NewServer assembles the harness's gin.Engine: the message-exchange
// endpoint a guest's hostTransport posts to, the websocket endpoint an
// upstream simulator dials, and two small admin endpoints (metrics poll,
// fixture reload) for cmd/coredump and iteration during development.
func NewServer(opts ServerOptions) (*gin.Engine, *Harness, error) {
	fixtures, err := LoadFixtures(opts.FixturesPath)
	if err != nil {
		return nil, nil, err
	}
	relay := NewRelay(opts.WebsocketPath)
	harness := NewHarness(fixtures, relay)

	r := gin.New()
	r.Use(obslog.GinRecovery())
	r.Use(obslog.GinLogger())

	r.POST("/v1/message-exchange", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Data(http.StatusBadRequest, "application/json", errResponse(err.Error()))
			return
		}
		resp := harness.Dispatch(c.Request.Context(), body)
		c.Data(http.StatusOK, "application/json", resp)
	})

	r.GET(relay.mgr.Path(), gin.WrapH(relay.Handler()))

	r.GET("/v1/metrics", func(c *gin.Context) {
		obslog.SkipRequestLog(c)
		c.JSON(http.StatusOK, gin.H{"events": drainEvents(harness)})
	})

	r.POST("/v1/fixtures/reload", func(c *gin.Context) {
		if err := fixtures.Reload(opts.FixturesPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reloaded": true})
	})

	return r, harness, nil
}

func drainEvents(h *Harness) []map[string]any {
	drained := h.Metrics.LockAndDrain()
	out := make([]map[string]any, len(drained))
	for i, e := range drained {
		out[i] = map[string]any{"level": e.Level, "msg": e.Message, "fields": e.Fields}
	}
	return out
}
