package health

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solbruket/storefront-engine/internal/common"
)

// Checker reports liveness and readiness of the cart service. Readiness means
// Redis answers a ping, since every cart operation goes through Redis.
type Checker struct {
	Redis   *redis.Client
	Timeout time.Duration
}

type status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live answers 200 as long as the process is serving requests.
func (c Checker) Live(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, status{Status: "ok"})
}

// Ready answers 200 when Redis is reachable, 503 otherwise.
func (c Checker) Ready(w http.ResponseWriter, r *http.Request) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := map[string]string{"redis": "ok"}
	code := http.StatusOK
	st := "ok"
	if c.Redis == nil {
		checks["redis"] = "not configured"
		code = http.StatusServiceUnavailable
		st = "unavailable"
	} else if err := c.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		code = http.StatusServiceUnavailable
		st = "unavailable"
	}

	common.JSON(w, code, status{Status: st, Checks: checks})
}
