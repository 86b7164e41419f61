package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	sessionsStartedTotal   atomic.Uint64
	sessionsCompletedTotal atomic.Uint64
	turnsTotal             atomic.Uint64
	staleTurnsTotal        atomic.Uint64
	coachActionsTotal      atomic.Uint64
	coachActionsFailed     atomic.Uint64

	reportJobsReceived  atomic.Uint64
	reportJobsCompleted atomic.Uint64
	reportJobsFailed    atomic.Uint64
	reportJobsDropped   atomic.Uint64

	turnDuration    = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000})
	sessionDuration = newHistogram([]float64{10000, 30000, 60000, 120000, 300000, 600000, 1800000})
)

// IncSessionStarted increments the started-session counter.
func IncSessionStarted() { sessionsStartedTotal.Add(1) }

// IncSessionCompleted increments the completed-session counter.
func IncSessionCompleted() { sessionsCompletedTotal.Add(1) }

// IncTurn increments the interview-turn counter.
func IncTurn() { turnsTotal.Add(1) }

// IncStaleTurn increments the rejected stale-turn counter.
func IncStaleTurn() { staleTurnsTotal.Add(1) }

// IncCoachAction increments the coach-action counter.
func IncCoachAction() { coachActionsTotal.Add(1) }

// IncCoachActionFailed increments the failed coach-action counter.
func IncCoachActionFailed() { coachActionsFailed.Add(1) }

// IncReportJobsReceived increments the received report-job counter.
func IncReportJobsReceived() { reportJobsReceived.Add(1) }

// IncReportJobsCompleted increments the completed report-job counter.
func IncReportJobsCompleted() { reportJobsCompleted.Add(1) }

// IncReportJobsFailed increments the failed report-job counter.
func IncReportJobsFailed() { reportJobsFailed.Add(1) }

// IncReportJobsDropped increments the unrecoverable report-job counter.
func IncReportJobsDropped() { reportJobsDropped.Add(1) }

// ObserveTurnDurationMs records one feedback round-trip in milliseconds.
func ObserveTurnDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	turnDuration.Observe(value)
}

// ObserveSessionDurationMs records a whole session duration in milliseconds.
func ObserveSessionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	sessionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "interview_sessions_started_total", "Total interview sessions started", sessionsStartedTotal.Load())
	writeCounter(&buf, "interview_sessions_completed_total", "Total interview sessions completed", sessionsCompletedTotal.Load())
	writeCounter(&buf, "interview_turns_total", "Total interview turns processed", turnsTotal.Load())
	writeCounter(&buf, "interview_stale_turns_total", "Total turns rejected as stale", staleTurnsTotal.Load())
	writeCounter(&buf, "coach_actions_total", "Total coach actions handled", coachActionsTotal.Load())
	writeCounter(&buf, "coach_actions_failed_total", "Total coach actions failed", coachActionsFailed.Load())
	writeCounter(&buf, "report_jobs_received_total", "Total report jobs received", reportJobsReceived.Load())
	writeCounter(&buf, "report_jobs_completed_total", "Total report jobs completed", reportJobsCompleted.Load())
	writeCounter(&buf, "report_jobs_failed_total", "Total report jobs failed", reportJobsFailed.Load())
	writeCounter(&buf, "report_jobs_dropped_total", "Total report jobs dropped as unrecoverable", reportJobsDropped.Load())
	writeHistogram(&buf, "interview_turn_duration_ms", "Feedback round-trip duration in milliseconds", turnDuration.Snapshot())
	writeHistogram(&buf, "interview_session_duration_ms", "Session duration in milliseconds", sessionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
