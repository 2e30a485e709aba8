package services

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
)

// RuntimeStats is a snapshot of the serving process
type RuntimeStats struct {
	HeapAllocBytes uint64  `json:"heapAllocBytes"`
	HeapSysBytes   uint64  `json:"heapSysBytes"`
	MemoryPercent  float64 `json:"memoryPercent"`
	Goroutines     int     `json:"goroutines"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
	GoVersion      string  `json:"goVersion"`
	NumCPU         int     `json:"numCpu"`
}

// RuntimeProbe reads process level statistics
type RuntimeProbe interface {
	Read() RuntimeStats
}

// GoRuntimeProbe reads the Go runtime's memory stats. Memory percent is the
// share of heap memory obtained from the OS that is currently allocated.
type GoRuntimeProbe struct {
	started time.Time
}

func NewGoRuntimeProbe() *GoRuntimeProbe {
	return &GoRuntimeProbe{started: time.Now()}
}

func (p *GoRuntimeProbe) Read() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var percent float64
	if m.HeapSys > 0 {
		percent = analytics.Round2(float64(m.HeapAlloc) / float64(m.HeapSys) * 100)
	}

	return RuntimeStats{
		HeapAllocBytes: m.HeapAlloc,
		HeapSysBytes:   m.HeapSys,
		MemoryPercent:  percent,
		Goroutines:     runtime.NumGoroutine(),
		UptimeSeconds:  analytics.Round2(time.Since(p.started).Seconds()),
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
	}
}

// SystemStats reports process health, store connectivity and the document
// count of every tracked table
type SystemStats struct {
	opts   SectionOptions
	probe  RuntimeProbe
	pinger analytics.Pinger
	now    func() time.Time
}

// NewSystemStats builds the system section. A nil probe uses the Go runtime,
// a nil pinger counts the store as connected and a nil clock uses time.Now.
func NewSystemStats(opts SectionOptions, probe RuntimeProbe, pinger analytics.Pinger, now func() time.Time) *SystemStats {
	if probe == nil {
		probe = NewGoRuntimeProbe()
	}
	if now == nil {
		now = time.Now
	}
	return &SystemStats{opts: opts.withDefaults(), probe: probe, pinger: pinger, now: now}
}

func (s *SystemStats) Name() string { return SectionSystem }

func (s *SystemStats) Compute(ctx context.Context, repo analytics.QueryRepository, tr analytics.TimeRange) *SectionResult {
	f := newFacetRunner(ctx, SectionSystem, repo, tr, s.opts.TopN)

	stats := s.probe.Read()
	f.set(func(r *SectionResult) {
		r.Runtime = &stats
		r.RangeSummary["memoryPercent"] = stats.MemoryPercent
		r.RangeSummary["goroutines"] = float64(stats.Goroutines)
		r.RangeSummary["uptimeSeconds"] = stats.UptimeSeconds
		r.RangeSummary["storeLatencyMs"] = 0
		r.RangeSummary["storeConnected"] = 0
	})

	f.run("storeConnected", func(ctx context.Context) error {
		if s.pinger == nil {
			f.set(func(r *SectionResult) { r.RangeSummary["storeConnected"] = 1 })
			return nil
		}
		start := time.Now()
		if err := s.pinger.PingContext(ctx); err != nil {
			return err
		}
		latency := analytics.Round2(float64(time.Since(start).Microseconds()) / 1000)
		f.set(func(r *SectionResult) {
			r.RangeSummary["storeConnected"] = 1
			r.RangeSummary["storeLatencyMs"] = latency
		})
		return nil
	})

	f.count("recentErrors", analytics.TableActivity, analytics.Filter{
		analytics.Eq("status", ActivityFailed),
		analytics.Since("created_at", s.now().UTC().Add(-time.Hour)),
	})

	var (
		mu     sync.Mutex
		counts = make([]analytics.GroupCount, 0, len(analytics.AllTables))
	)
	for _, table := range analytics.AllTables {
		table := table
		f.run("collection_"+table, func(ctx context.Context) error {
			n, err := repo.Count(ctx, table, nil)
			if err != nil {
				return &analytics.RepositoryError{Table: table, Metric: "collection", Err: err}
			}
			mu.Lock()
			counts = append(counts, analytics.GroupCount{Key: table, Count: n})
			mu.Unlock()
			return nil
		})
	}

	res := f.wait()

	var total int64
	for _, c := range counts {
		total += c.Count
	}
	res.Total = total
	res.GroupBreakdown["collection"] = analytics.TopN(counts, s.opts.TopN)
	res.DailySeries = []analytics.DailyPoint{}

	return res
}

// HealthInputs extracts the health score signals from a system section.
// Missing values count as zero, so a degraded ping reads as disconnected.
func HealthInputs(system *SectionResult) analytics.HealthInputs {
	return analytics.HealthInputs{
		StoreConnected: system.Summary("storeConnected") == 1,
		MemoryPercent:  system.Summary("memoryPercent"),
		RecentErrors:   int64(system.Summary("recentErrors")),
	}
}
