package usecase

import (
	"sync/atomic"
	"time"
)

// MetricsSummary represents aggregated pipeline outcomes since start.
type MetricsSummary struct {
	TotalRequests              int64   `json:"total_requests"`
	ResolvedRequests           int64   `json:"resolved_requests"`
	RejectedRequests           int64   `json:"rejected_requests"`
	FailedRequests             int64   `json:"failed_requests"`
	SuccessRate                float64 `json:"success_rate"`
	AverageProcessingLatencyMs float64 `json:"average_processing_latency_ms"`
}

type requestMetrics struct {
	total     atomic.Int64
	resolved  atomic.Int64
	rejected  atomic.Int64
	failed    atomic.Int64
	latencyNs atomic.Int64
}

func (m *requestMetrics) record(stage Stage, latency time.Duration) {
	m.total.Add(1)
	switch stage {
	case StageResolved:
		m.resolved.Add(1)
		m.latencyNs.Add(latency.Nanoseconds())
	case StageRejectedInput:
		m.rejected.Add(1)
	default:
		m.failed.Add(1)
	}
}

// GetMetricsSummary reports request counts; latency is averaged over
// resolved requests only.
func (uc *DiagnosisUseCase) GetMetricsSummary() *MetricsSummary {
	summary := &MetricsSummary{
		TotalRequests:    uc.metrics.total.Load(),
		ResolvedRequests: uc.metrics.resolved.Load(),
		RejectedRequests: uc.metrics.rejected.Load(),
		FailedRequests:   uc.metrics.failed.Load(),
	}

	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.ResolvedRequests) / float64(summary.TotalRequests)
	}
	if summary.ResolvedRequests > 0 {
		avg := time.Duration(uc.metrics.latencyNs.Load() / summary.ResolvedRequests)
		summary.AverageProcessingLatencyMs = float64(avg) / float64(time.Millisecond)
	}
	return summary
}
