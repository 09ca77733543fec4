package util

import (
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Progress counts completed units of work and logs the running total at
// most once per interval, plus the first and the last unit.
type Progress struct {
	label string
	total int64
	done  atomic.Int64
	gate  rate.Sometimes
}

func NewProgress(label string, total int, interval time.Duration) *Progress {
	return &Progress{
		label: label,
		total: int64(total),
		gate:  rate.Sometimes{First: 1, Interval: interval},
	}
}

// Step records one completed unit. Safe for concurrent use.
func (p *Progress) Step() {
	n := p.done.Add(1)
	if n == p.total {
		slog.Debug(p.label, "done", n, "total", p.total)
		return
	}
	p.gate.Do(func() {
		slog.Debug(p.label, "done", p.done.Load(), "total", p.total)
	})
}

func (p *Progress) Done() int64 {
	return p.done.Load()
}
