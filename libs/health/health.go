package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// Manager gates readiness. Liveness is unconditional; readiness flips off
// while dependencies (Mongo, Redis, Kafka) are being torn down or rebuilt.
type Manager struct {
	ready   atomic.Bool
	started time.Time
}

func NewManager(initialReady bool) *Manager {
	m := &Manager{started: time.Now()}
	m.ready.Store(initialReady)
	return m
}

func (m *Manager) SetReady(ready bool) {
	m.ready.Store(ready)
}

func (m *Manager) IsReady() bool {
	return m.ready.Load()
}

func (m *Manager) Uptime() time.Duration {
	return time.Since(m.started)
}

func LivenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ReadinessHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		uptime := m.Uptime().Round(time.Second).String()
		if m.IsReady() {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "uptime": uptime})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "uptime": uptime})
	}
}
