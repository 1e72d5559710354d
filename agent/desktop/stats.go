package desktop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/procfs"
)

const DefaultProcRoot = procfs.DefaultMountPoint

type CPUTimes struct {
	Total float64
	Idle  float64
}

type MemoryUsage struct {
	TotalKB     uint64
	AvailableKB uint64
}

func (m MemoryUsage) UsedKB() uint64 {
	if m.AvailableKB > m.TotalKB {
		return 0
	}
	return m.TotalKB - m.AvailableKB
}

type DiskUsage struct {
	Size    string
	Used    string
	Percent string
}

// ProcStats reads cumulative CPU counters and memory figures from a proc
// filesystem.
type ProcStats struct {
	fs procfs.FS
}

func NewProcStats(root string) (*ProcStats, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultProcRoot
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", root, err)
	}
	return &ProcStats{fs: fs}, nil
}

// CPUTimes sums every aggregate counter of the "cpu" line into Total.
func (p *ProcStats) CPUTimes() (CPUTimes, error) {
	st, err := p.fs.Stat()
	if err != nil {
		return CPUTimes{}, fmt.Errorf("read cpu stat: %w", err)
	}
	c := st.CPUTotal
	total := c.User + c.Nice + c.System + c.Idle + c.Iowait + c.IRQ + c.SoftIRQ + c.Steal + c.Guest + c.GuestNice
	return CPUTimes{Total: total, Idle: c.Idle}, nil
}

func (p *ProcStats) Memory() (MemoryUsage, error) {
	mi, err := p.fs.Meminfo()
	if err != nil {
		return MemoryUsage{}, fmt.Errorf("read meminfo: %w", err)
	}
	if mi.MemTotal == nil || mi.MemAvailable == nil || *mi.MemTotal == 0 {
		return MemoryUsage{}, errors.New("meminfo lacks MemTotal or MemAvailable")
	}
	return MemoryUsage{TotalKB: *mi.MemTotal, AvailableKB: *mi.MemAvailable}, nil
}

// Df reports filesystem usage with "df -h".
type Df struct {
	run runFunc
}

func NewDf() *Df {
	return &Df{run: runCommand}
}

func (d *Df) Usage(ctx context.Context, mount string) (DiskUsage, error) {
	if err := ctx.Err(); err != nil {
		return DiskUsage{}, err
	}
	stdout, stderr, err := d.run(ctx, "df", "-h", mount)
	if err != nil {
		return DiskUsage{}, formatError("df -h", err, stderr)
	}
	return parseDf(stdout)
}

func parseDf(out string) (DiskUsage, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return DiskUsage{}, errors.New("df output has no data row")
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 5 {
		return DiskUsage{}, fmt.Errorf("df data row has %d fields", len(fields))
	}
	return DiskUsage{Size: fields[1], Used: fields[2], Percent: fields[4]}, nil
}
