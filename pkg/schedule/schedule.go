// Package schedule runs periodic background tasks.
//
//	s := schedule.New()
//	s.Every(5 * time.Second).Name("outbox:relay").WithoutOverlapping().Run(relay.Tick)
//	s.Cron("*/5 * * * *").Name("ratelimit:sweep").Run(sweep)
//	s.Start(ctx) // blocks until ctx is done
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/apotek/pkg/logger"
)

// Task is one scheduled unit of work. Returned errors are logged.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string
	task      Task
	noOverlap bool

	mu       sync.Mutex
	lastRun  time.Time
	lastCron time.Time // minute of the last cron match
	running  bool
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	tick    time.Duration
	now     func() time.Time
}

func New() *Scheduler {
	return &Scheduler{tick: time.Second, now: time.Now}
}

// Every runs the task at a fixed interval, first on the tick after Start.
func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

// Cron runs the task once per matching minute. Fields: minute hour dom
// month dow; each is *, N, */N or N-M.
func (s *Scheduler) Cron(expr string) *Builder {
	return &Builder{s: s, e: &entry{cronExpr: expr}}
}

func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Run registers the entry.
func (b *Builder) Run(task Task) {
	b.e.task = task

	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start dispatches due tasks until ctx is done, then waits for running
// tasks to return.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	logger.Info("schedule: scheduler started", "tasks", len(s.List()))
	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case <-ticker.C:
			now := s.now()
			for _, e := range s.snapshot() {
				if e.due(now) {
					s.dispatch(ctx, &wg, e, now)
				}
			}
		}
	}
}

// RunNow runs every entry once, synchronously, in registration order.
// Used by the schedule:run command.
func (s *Scheduler) RunNow(ctx context.Context) error {
	var firstErr error
	for _, e := range s.snapshot() {
		if err := s.invoke(ctx, e); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", e.id, err)
		}
	}
	return firstErr
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entry(nil), s.entries...)
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cronExpr != "" {
		minute := now.Truncate(time.Minute)
		if !matchCron(e.cronExpr, now) || minute.Equal(e.lastCron) {
			return false
		}
		e.lastCron = minute
		return true
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, wg *sync.WaitGroup, e *entry, now time.Time) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()
		if err := s.invoke(ctx, e); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "error", err)
		}
	}()
}

func (s *Scheduler) invoke(ctx context.Context, e *entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	logger.Debug("schedule: running task", "id", e.id)
	return e.task(ctx)
}

// List describes the registered entries for the CLI.
func (s *Scheduler) List() []string {
	entries := s.snapshot()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	values := []int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, values[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	switch {
	case field == "*":
		return true
	case strings.HasPrefix(field, "*/"):
		step, err := strconv.Atoi(field[2:])
		return err == nil && step > 0 && val%step == 0
	case strings.Contains(field, "-"):
		lo, hi, _ := strings.Cut(field, "-")
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		return err1 == nil && err2 == nil && val >= l && val <= h
	default:
		n, err := strconv.Atoi(field)
		return err == nil && n == val
	}
}
