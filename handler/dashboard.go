// Package handler provides HTTP handlers for the Argus API.
package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"argus/core/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// DashboardHandler serves snapshot and health requests.
type DashboardHandler struct {
	snapshots       *service.SnapshotService
	refreshInterval time.Duration
	upgrader        websocket.Upgrader
}

// NewDashboardHandler creates a new dashboard handler. refreshInterval is
// the hint sent to clients for how often to re-request a snapshot, and the
// push cadence of the WebSocket stream.
func NewDashboardHandler(snapshots *service.SnapshotService, refreshInterval time.Duration) *DashboardHandler {
	return &DashboardHandler{
		snapshots:       snapshots,
		refreshInterval: refreshInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
	}
}

// GetSnapshot handles GET /argus/snapshot
// Returns a fresh snapshot of all containers, host info and networks.
// A daemon connection failure returns 503 so the UI can render a
// connection-error state distinct from an empty dashboard.
func (h *DashboardHandler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.snapshots.Build(c.Request.Context())
	if err != nil {
		log.Printf("Failed to build snapshot: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot":                 snapshot,
		"refresh_interval_seconds": int(h.refreshInterval.Seconds()),
	})
}

// GetHealth handles GET /argus/health
// Probes the daemon and reports reachable/unreachable with a timestamp.
func (h *DashboardHandler) GetHealth(c *gin.Context) {
	result := h.snapshots.Probe(c.Request.Context())
	if !result.Reachable {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": result.Error,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": result.CheckedAt,
	})
}

// GetHealthHistory handles GET /argus/health/history
// Query parameters:
//   - limit: integer (max number of entries, default 50)
func (h *DashboardHandler) GetHealthHistory(c *gin.Context) {
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	probes, err := h.snapshots.RecentProbes(limit)
	if err != nil {
		log.Printf("Failed to load probe history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load probe history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"probes": probes,
		"count":  len(probes),
	})
}

// StreamSnapshots handles GET /argus/ws/snapshot (WebSocket)
// Pushes a fresh snapshot immediately and then once per refresh interval
// until the client disconnects. Each push rebuilds from live daemon reads;
// nothing is cached between pushes.
func (h *DashboardHandler) StreamSnapshots(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Detect client disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(h.refreshInterval)
	defer ticker.Stop()

	for {
		if err := h.pushSnapshot(ctx, conn); err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *DashboardHandler) pushSnapshot(ctx context.Context, conn *websocket.Conn) error {
	payload := gin.H{
		"refresh_interval_seconds": int(h.refreshInterval.Seconds()),
	}

	snapshot, err := h.snapshots.Build(ctx)
	if err != nil {
		payload["error"] = err.Error()
	} else {
		payload["snapshot"] = snapshot
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("Failed to push snapshot: %v", err)
		return err
	}
	return nil
}
