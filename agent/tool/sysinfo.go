package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/desktop"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSampleInterval = 100 * time.Millisecond
	defaultMount          = "/"
	kbPerGB               = 1024 * 1024
)

// SystemInfoProbe gathers the system_info report. Each metric degrades to
// its own "Not available" line; the report as a whole never fails.
type SystemInfoProbe struct {
	cpu      desktop.CPUSampler
	mem      desktop.MemoryReader
	disk     desktop.DiskStats
	interval time.Duration
	mount    string
}

func NewSystemInfoProbe(
	cpu desktop.CPUSampler,
	mem desktop.MemoryReader,
	disk desktop.DiskStats,
	interval time.Duration,
) *SystemInfoProbe {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &SystemInfoProbe{
		cpu:      cpu,
		mem:      mem,
		disk:     disk,
		interval: interval,
		mount:    defaultMount,
	}
}

// Report returns the formatted report. It only errors when ctx ends first.
func (p *SystemInfoProbe) Report(ctx context.Context) (string, error) {
	var lines [3]string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		line, err := p.cpuLine(gctx)
		lines[0] = line
		return err
	})
	g.Go(func() error {
		lines[1] = p.memoryLine()
		return nil
	})
	g.Go(func() error {
		lines[2] = p.diskLine(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("System Information:")
	for _, line := range lines {
		b.WriteString("\n• ")
		b.WriteString(line)
	}
	return b.String(), nil
}

func (p *SystemInfoProbe) cpuLine(ctx context.Context) (string, error) {
	const unavailable = "CPU Usage: Not available"
	if p.cpu == nil {
		return unavailable, nil
	}

	first, err := p.cpu.CPUTimes()
	if err != nil {
		log.Debug().Err(err).Msg("cpu sample failed")
		return unavailable, nil
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	second, err := p.cpu.CPUTimes()
	if err != nil {
		log.Debug().Err(err).Msg("cpu sample failed")
		return unavailable, nil
	}

	totalDelta := second.Total - first.Total
	if totalDelta <= 0 {
		return "CPU Usage: Unable to calculate", nil
	}
	idleDelta := second.Idle - first.Idle
	usage := (1 - idleDelta/totalDelta) * 100
	return fmt.Sprintf("CPU Usage: %.1f%%", usage), nil
}

func (p *SystemInfoProbe) memoryLine() string {
	if p.mem == nil {
		return "Memory: Not available"
	}
	m, err := p.mem.Memory()
	if err == nil && m.TotalKB == 0 {
		err = fmt.Errorf("memory total is zero")
	}
	if err != nil {
		log.Debug().Err(err).Msg("memory read failed")
		return "Memory: Not available"
	}
	used := m.UsedKB()
	percent := float64(used) / float64(m.TotalKB) * 100
	return fmt.Sprintf("Memory: %.1fGB / %.1fGB (%.1f%%)",
		float64(used)/kbPerGB, float64(m.TotalKB)/kbPerGB, percent)
}

func (p *SystemInfoProbe) diskLine(ctx context.Context) string {
	if p.disk == nil {
		return "Disk: Not available"
	}
	u, err := p.disk.Usage(ctx, p.mount)
	if err != nil {
		log.Debug().Err(err).Msg("disk usage failed")
		return "Disk: Not available"
	}
	return fmt.Sprintf("Disk (%s): %s / %s (%s)", p.mount, u.Used, u.Size, u.Percent)
}
