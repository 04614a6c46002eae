// Package statsutil derives point-in-time metrics from the cumulative
// counters the Docker stats API reports.
package statsutil

import (
	"fmt"
	"math"
	"time"

	"github.com/docker/docker/api/types/container"
)

// UnknownUptime is the sentinel for a missing or unparseable start time.
const UnknownUptime = "unknown"

// MemorySnapshot is a container's memory usage normalized to MB, net of
// reclaimable page cache.
type MemorySnapshot struct {
	UsedMB  float64 `json:"used_mb"`
	LimitMB float64 `json:"limit_mb"`
	Percent float64 `json:"percent"`
}

// CPUPercentBetween derives a CPU percentage from two time-separated stats
// snapshots. The daemon reports cumulative nanoseconds, so a rate needs the
// delta of container usage over the delta of system usage, scaled by the
// number of online CPUs (1 when the daemon omits it). Returns 0 when either
// counter did not advance, so clock anomalies never produce a negative or
// undefined percentage.
func CPUPercentBetween(first, second *container.StatsResponse) float64 {
	cpuDelta := float64(second.CPUStats.CPUUsage.TotalUsage) - float64(first.CPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(second.CPUStats.SystemUsage) - float64(first.CPUStats.SystemUsage)

	if systemDelta <= 0.0 || cpuDelta < 0.0 {
		return 0.0
	}

	numCPUs := float64(second.CPUStats.OnlineCPUs)
	if numCPUs == 0 {
		numCPUs = 1
	}

	return roundTo(cpuDelta/systemDelta*numCPUs*100.0, 2)
}

// MemoryFromStats converts one stats snapshot into a MemorySnapshot.
// The kernel counts page cache toward usage; cache is reclaimable, so it is
// subtracted before showing "used" memory, clamped at zero. Percent is 0
// when the container has no limit.
func MemoryFromStats(stats *container.StatsResponse) MemorySnapshot {
	usage := float64(stats.MemoryStats.Usage)
	limit := float64(stats.MemoryStats.Limit)
	cache := float64(stats.MemoryStats.Stats["cache"])

	actual := usage - cache
	if actual < 0 {
		actual = 0
	}

	snap := MemorySnapshot{
		UsedMB:  roundTo(actual/(1024*1024), 1),
		LimitMB: roundTo(limit/(1024*1024), 1),
	}
	if limit > 0 {
		snap.Percent = roundTo(actual/limit*100.0, 1)
	}
	return snap
}

// FormatUptime converts a container's StartedAt timestamp into a coarse
// human-readable duration: "3d 12h", "2h 34m" or "45m". Returns
// UnknownUptime when the timestamp is missing or unparseable.
func FormatUptime(startedAt string) string {
	return formatUptimeAt(startedAt, time.Now().UTC())
}

func formatUptimeAt(startedAt string, now time.Time) string {
	started, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		started, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return UnknownUptime
		}
	}

	totalSeconds := int(now.Sub(started).Seconds())
	days := totalSeconds / 86400
	hours := (totalSeconds % 86400) / 3600
	minutes := (totalSeconds % 3600) / 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
