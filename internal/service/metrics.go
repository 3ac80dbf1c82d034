package service

import (
	"errors"

	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "note_registry_created_total",
		Help: "Notes created.",
	})
	notesTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "note_registry_transferred_total",
		Help: "Notes moved to a different owner.",
	})
	registryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "note_registry_errors_total",
		Help: "Failed registry operations by operation and error kind.",
	}, []string{"op", "kind"})

	nextIDGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "note_registry_next_id",
		Help: "Next note id the allocator will hand out.",
	})
	notesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "note_registry_notes",
		Help: "Notes currently stored.",
	})
)

// errorKind maps an error to a low-cardinality label value
// errorKind 把错误映射为低基数的标签值
func errorKind(err error) string {
	switch {
	case errors.Is(err, code.ErrorUnauthorized):
		return "unauthorized"
	case errors.Is(err, code.ErrorIDSpaceExhausted):
		return "id_space_exhausted"
	case errors.Is(err, code.ErrorInvalidNoteID):
		return "invalid_note_id"
	case errors.Is(err, code.ErrorInvalidParams):
		return "invalid_params"
	}
	return "internal"
}

// ObserveStats sets the registry gauges
// ObserveStats 更新注册表指标
func ObserveStats(stats *RegistryStatsDTO) {
	if stats == nil {
		return
	}
	nextIDGauge.Set(float64(stats.NextID))
	notesGauge.Set(float64(stats.Notes))
}
