// Package sysinfo reports host health for the admin status page.
// It uses gopsutil for cross-platform system telemetry.
package sysinfo

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot holds a single collection cycle's data.
type Snapshot struct {
	Hostname    string    `json:"hostname"`
	OS          string    `json:"os"`
	GoVersion   string    `json:"go_version"`
	Goroutines  int       `json:"goroutines"`
	CPUUsage    float64   `json:"cpu_usage"`
	MemUsage    float64   `json:"mem_usage"`
	DiskUsage   float64   `json:"disk_usage"`
	DiskPath    string    `json:"disk_path"`
	UptimeSec   uint64    `json:"uptime_sec"`
	CollectedAt time.Time `json:"collected_at"`
}

// Collector gathers host metrics. Results are cached for MaxAge so a busy
// status page does not keep sampling the CPU.
type Collector struct {
	// DiskPath is the mount to report; "" reports the fullest partition.
	DiskPath string
	MaxAge   time.Duration

	mu   sync.Mutex
	last *Snapshot
}

// NewCollector creates a Collector reporting the disk that holds path.
func NewCollector(path string) *Collector {
	return &Collector{DiskPath: path, MaxAge: 10 * time.Second}
}

// Collect returns the current snapshot, reusing a recent one.
func (c *Collector) Collect(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && time.Since(c.last.CollectedAt) < c.MaxAge {
		cp := *c.last
		return &cp, nil
	}

	snap := &Snapshot{
		OS:          detailedOS(ctx),
		GoVersion:   runtime.Version(),
		Goroutines:  runtime.NumGoroutine(),
		DiskPath:    c.DiskPath,
		CollectedAt: time.Now(),
	}
	if h, err := os.Hostname(); err == nil {
		snap.Hostname = h
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		snap.UptimeSec = up
	}

	// CPU
	if pcts, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(pcts) > 0 {
		snap.CPUUsage = pcts[0]
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Memory
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemUsage = vm.UsedPercent
	}

	// Disk
	if c.DiskPath != "" {
		if u, err := disk.UsageWithContext(ctx, c.DiskPath); err == nil {
			snap.DiskUsage = u.UsedPercent
		}
	} else {
		snap.DiskUsage = maxDiskUsage(ctx)
	}

	c.last = snap
	cp := *snap
	return &cp, nil
}

// detailedOS returns a descriptive OS version string, or runtime.GOOS as fallback.
func detailedOS(ctx context.Context) string {
	info, err := host.InfoWithContext(ctx)
	if err == nil && info.Platform != "" {
		if info.PlatformVersion != "" {
			return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		}
		return info.Platform
	}
	return runtime.GOOS
}

// maxDiskUsage returns the used percentage of the partition with highest usage.
func maxDiskUsage(ctx context.Context) float64 {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return 0
	}
	var max float64
	for _, p := range partitions {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		if usage.UsedPercent > max {
			max = usage.UsedPercent
		}
	}
	return max
}
