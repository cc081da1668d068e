// Package observability aggregates live counters for the chat core.
package observability

import (
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Monitor collects relay and presence telemetry. All counters are
// atomic; a nil Monitor is valid and counts nothing, which keeps tests
// free of wiring noise.
type Monitor struct {
	startedAt time.Time
	proc      *process.Process

	ConnectionsOpened uint64
	ConnectionsClosed uint64
	Registers         uint64
	Broadcasts        uint64
	MessagesRelayed   uint64
	OfflineNotices    uint64
	RejectedSends     uint64
	DroppedEvents     uint64
	HistoryWrites     uint64
	HistoryErrors     uint64
}

func NewMonitor() *Monitor {
	// Process handle may be unavailable in restricted environments;
	// stats then fall back to runtime-only numbers.
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Monitor{startedAt: time.Now(), proc: proc}
}

// The nil check happens before the field address is taken; a method
// body only sees a nil receiver once it dereferences it.
func (m *Monitor) IncrConnectionsOpened() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ConnectionsOpened, 1)
}

func (m *Monitor) IncrConnectionsClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ConnectionsClosed, 1)
}

func (m *Monitor) IncrRegisters() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.Registers, 1)
}

func (m *Monitor) IncrBroadcasts() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.Broadcasts, 1)
}

func (m *Monitor) IncrMessagesRelayed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.MessagesRelayed, 1)
}

func (m *Monitor) IncrOfflineNotices() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.OfflineNotices, 1)
}

func (m *Monitor) IncrRejectedSends() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.RejectedSends, 1)
}

func (m *Monitor) IncrDroppedEvents() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.DroppedEvents, 1)
}

func (m *Monitor) IncrHistoryWrites() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.HistoryWrites, 1)
}

func (m *Monitor) IncrHistoryErrors() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.HistoryErrors, 1)
}

// Stats renders the current counters plus process health for the
// inspector's dashboard panel.
func (m *Monitor) Stats() map[string]any {
	if m == nil {
		return map[string]any{}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := map[string]any{
		"Uptime":             time.Since(m.startedAt).Round(time.Second).String(),
		"Connections Opened": atomic.LoadUint64(&m.ConnectionsOpened),
		"Connections Closed": atomic.LoadUint64(&m.ConnectionsClosed),
		"Registers":          atomic.LoadUint64(&m.Registers),
		"Broadcasts":         atomic.LoadUint64(&m.Broadcasts),
		"Messages Relayed":   atomic.LoadUint64(&m.MessagesRelayed),
		"Offline Notices":    atomic.LoadUint64(&m.OfflineNotices),
		"Rejected Sends":     atomic.LoadUint64(&m.RejectedSends),
		"Dropped Events":     atomic.LoadUint64(&m.DroppedEvents),
		"History Writes":     atomic.LoadUint64(&m.HistoryWrites),
		"History Errors":     atomic.LoadUint64(&m.HistoryErrors),
		"Goroutines":         runtime.NumGoroutine(),
		"Alloc MB":           memStats.Alloc / 1024 / 1024,
		"GC Cycles":          memStats.NumGC,
	}

	if m.proc != nil {
		if cpu, err := m.proc.CPUPercent(); err == nil {
			stats["CPU %"] = cpu
		}
		if mem, err := m.proc.MemoryInfo(); err == nil && mem != nil {
			stats["RSS MB"] = mem.RSS / 1024 / 1024
		}
	}
	return stats
}
