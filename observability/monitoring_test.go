package observability

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NilMonitor_IsNoOp(t *testing.T) {
	req := require.New(t)
	var monitor *Monitor

	// Every counter and Stats must tolerate a nil receiver
	monitor.IncrConnectionsOpened()
	monitor.IncrConnectionsClosed()
	monitor.IncrRegisters()
	monitor.IncrBroadcasts()
	monitor.IncrMessagesRelayed()
	monitor.IncrOfflineNotices()
	monitor.IncrRejectedSends()
	monitor.IncrDroppedEvents()
	monitor.IncrHistoryWrites()
	monitor.IncrHistoryErrors()

	req.Empty(monitor.Stats())
}

func Test_Monitor_CountsIncrements(t *testing.T) {
	req := require.New(t)
	monitor := NewMonitor()

	monitor.IncrRegisters()
	monitor.IncrRegisters()
	monitor.IncrMessagesRelayed()

	stats := monitor.Stats()
	req.Equal(uint64(2), stats["Registers"])
	req.Equal(uint64(1), stats["Messages Relayed"])
	req.Equal(uint64(0), stats["Offline Notices"])
}
