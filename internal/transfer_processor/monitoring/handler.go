package monitoring

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/banking-transfer-saga/internal/transfer_processor/errorhandling"
)

type statsHandler struct {
	published *errorhandling.Stats
	observed  *errorhandling.Stats
	threshold int64
}

// StatsSnapshot is the wire form of one stats aggregator
type StatsSnapshot struct {
	Total      int64                            `json:"total"`
	ByTopic    map[string]int64                 `json:"byTopic"`
	ByCategory map[errorhandling.Category]int64 `json:"byCategory"`
}

// HealthSnapshot is the dead-letter health report
type HealthSnapshot struct {
	Status    string `json:"status"`
	Total     int64  `json:"totalFailedMessages"`
	Threshold int64  `json:"threshold"`
}

func snapshot(s *errorhandling.Stats) StatsSnapshot {
	return StatsSnapshot{
		Total:      s.Total(),
		ByTopic:    s.ByTopic(),
		ByCategory: s.ByCategory(),
	}
}

// Stats reports both aggregators: what this instance dead-lettered and
// what the monitor group observed across all instances.
func (h *statsHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"published": snapshot(h.published),
		"observed":  snapshot(h.observed),
	})
}

// Health flips to WARNING once this instance's dead-letter total reaches
// the configured threshold.
func (h *statsHandler) Health(c *gin.Context) {
	total := h.published.Total()
	status := StatusHealthy
	if total >= h.threshold {
		status = StatusWarning
	}
	c.JSON(http.StatusOK, HealthSnapshot{
		Status:    status,
		Total:     total,
		Threshold: h.threshold,
	})
}
