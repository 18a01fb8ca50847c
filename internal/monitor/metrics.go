package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// SystemMetrics tracks trading cycle performance.
type SystemMetrics struct {
	// Latency histograms
	AdviceLatency *LatencyHistogram
	SweepLatency  *LatencyHistogram
	APILatency    *LatencyHistogram

	// Counters
	articlesSeen    uint64
	directives      uint64
	invalidReplies  uint64
	ordersSubmitted uint64
	ordersRejected  uint64
	errorsCount     uint64
	adviceCycles    uint64
	sweepCycles     uint64
	apiRequests     uint64
	apiErrors       uint64

	started time.Time
}

// LatencyHistogram tracks latency samples with sliding window.
// Stats are computed lazily and cached until the next Record.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// NewSystemMetrics creates a new metrics instance.
func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{
		AdviceLatency: NewLatencyHistogram(1000),
		SweepLatency:  NewLatencyHistogram(1000),
		APILatency:    NewLatencyHistogram(1000),
		started:       time.Now(),
	}
}

// NewLatencyHistogram creates a sliding window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
	h.dirty = true
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg, p50, p95, p99.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty && h.cachedStats.Count > 0 {
		return h.cachedStats
	}

	n := len(h.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	h.cachedStats = LatencyStats{
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		P99:   sorted[int(float64(n)*0.99)],
		Count: n,
	}
	h.dirty = false
	return h.cachedStats
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Count int     `json:"count"`
}

func (m *SystemMetrics) AddArticles(n int) { atomic.AddUint64(&m.articlesSeen, uint64(n)) }
func (m *SystemMetrics) IncrementDirectives() { atomic.AddUint64(&m.directives, 1) }
func (m *SystemMetrics) IncrementInvalid()    { atomic.AddUint64(&m.invalidReplies, 1) }
func (m *SystemMetrics) IncrementOrders()     { atomic.AddUint64(&m.ordersSubmitted, 1) }
func (m *SystemMetrics) IncrementRejected()   { atomic.AddUint64(&m.ordersRejected, 1) }
func (m *SystemMetrics) IncrementErrors()     { atomic.AddUint64(&m.errorsCount, 1) }
func (m *SystemMetrics) IncrementAdvice()     { atomic.AddUint64(&m.adviceCycles, 1) }
func (m *SystemMetrics) IncrementSweeps()     { atomic.AddUint64(&m.sweepCycles, 1) }
func (m *SystemMetrics) IncrementAPI()        { atomic.AddUint64(&m.apiRequests, 1) }
func (m *SystemMetrics) IncrementAPIErrors()  { atomic.AddUint64(&m.apiErrors, 1) }

// MetricsSnapshot is a point-in-time copy of SystemMetrics.
type MetricsSnapshot struct {
	AdviceLatency   LatencyStats `json:"advice_latency"`
	SweepLatency    LatencyStats `json:"sweep_latency"`
	APILatency      LatencyStats `json:"api_latency"`
	ArticlesSeen    uint64       `json:"articles_seen"`
	Directives      uint64       `json:"directives"`
	InvalidReplies  uint64       `json:"invalid_replies"`
	OrdersSubmitted uint64       `json:"orders_submitted"`
	OrdersRejected  uint64       `json:"orders_rejected"`
	ErrorsCount     uint64       `json:"errors_count"`
	AdviceCycles    uint64       `json:"advice_cycles"`
	SweepCycles     uint64       `json:"sweep_cycles"`
	APIRequests     uint64       `json:"api_requests"`
	APIErrors       uint64       `json:"api_errors"`
	Uptime          string       `json:"uptime"`
	GoroutineCount  int          `json:"goroutine_count"`
	HeapAlloc       uint64       `json:"heap_alloc_bytes"`
	Timestamp       time.Time    `json:"timestamp"`
}

// GetSnapshot returns a point-in-time metrics snapshot.
func (m *SystemMetrics) GetSnapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MetricsSnapshot{
		AdviceLatency:   m.AdviceLatency.Stats(),
		SweepLatency:    m.SweepLatency.Stats(),
		APILatency:      m.APILatency.Stats(),
		ArticlesSeen:    atomic.LoadUint64(&m.articlesSeen),
		Directives:      atomic.LoadUint64(&m.directives),
		InvalidReplies:  atomic.LoadUint64(&m.invalidReplies),
		OrdersSubmitted: atomic.LoadUint64(&m.ordersSubmitted),
		OrdersRejected:  atomic.LoadUint64(&m.ordersRejected),
		ErrorsCount:     atomic.LoadUint64(&m.errorsCount),
		AdviceCycles:    atomic.LoadUint64(&m.adviceCycles),
		SweepCycles:     atomic.LoadUint64(&m.sweepCycles),
		APIRequests:     atomic.LoadUint64(&m.apiRequests),
		APIErrors:       atomic.LoadUint64(&m.apiErrors),
		Uptime:          time.Since(m.started).Truncate(time.Second).String(),
		GoroutineCount:  runtime.NumGoroutine(),
		HeapAlloc:       memStats.HeapAlloc,
		Timestamp:       time.Now(),
	}
}

// Timer helps measure operation duration.
type Timer struct {
	start     time.Time
	histogram *LatencyHistogram
}

// NewTimer creates a timer that records to the given histogram.
func NewTimer(h *LatencyHistogram) *Timer {
	return &Timer{start: time.Now(), histogram: h}
}

// Stop records elapsed time to histogram.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.RecordDuration(elapsed)
	}
	return elapsed
}
