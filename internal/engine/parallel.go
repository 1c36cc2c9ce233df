package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrTaskTimeout is recorded on an outcome whose task exceeded its own timeout.
var ErrTaskTimeout = errors.New("task timed out")

// ErrCollectTimeout is recorded on outcomes still pending when the collection deadline passed.
var ErrCollectTimeout = errors.New("collection deadline exceeded")

// Task is one unit of fan-out work. Higher Priority tasks are dispatched first.
type Task[T any] struct {
	Name     string
	Priority int
	Timeout  time.Duration // 0 = ParallelOpts.TaskTimeout
	Run      func(ctx context.Context) (T, error)
}

// Outcome is the isolated result of a single Task.
type Outcome[T any] struct {
	Name     string        `json:"name"`
	Priority int           `json:"priority"`
	Value    T             `json:"value"`
	Err      error         `json:"-"`
	Elapsed  time.Duration `json:"elapsed"`
	Success  bool          `json:"success"`
}

// ParallelOpts bounds a RunParallel call.
type ParallelOpts struct {
	Workers        int
	RequestDelay   time.Duration // minimum spacing between task starts; 0 = unpaced
	TaskTimeout    time.Duration
	CollectTimeout time.Duration
}

// DefaultParallelOpts mirrors the search engine defaults: 8 workers, 500ms pacing.
var DefaultParallelOpts = ParallelOpts{
	Workers:        8,
	RequestDelay:   500 * time.Millisecond,
	TaskTimeout:    15 * time.Second,
	CollectTimeout: 30 * time.Second,
}

func (o ParallelOpts) withDefaults() ParallelOpts {
	if o.Workers <= 0 {
		o.Workers = DefaultParallelOpts.Workers
	}
	if o.RequestDelay < 0 {
		o.RequestDelay = 0
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = DefaultParallelOpts.TaskTimeout
	}
	if o.CollectTimeout <= 0 {
		o.CollectTimeout = DefaultParallelOpts.CollectTimeout
	}
	return o
}

// ExecutionStats summarises one RunParallel batch.
type ExecutionStats struct {
	Total              int           `json:"total_tasks"`
	Succeeded          int           `json:"successful_tasks"`
	Failed             int           `json:"failed_tasks"`
	TotalTime          time.Duration `json:"total_time"`
	AvgTaskTime        time.Duration `json:"average_task_time"`
	ParallelEfficiency string        `json:"parallel_efficiency"`
}

// RunParallel executes tasks on a bounded worker pool and returns one outcome per
// task, in submission order. Failures, timeouts and panics are isolated per task.
func RunParallel[T any](ctx context.Context, tasks []Task[T], opts ParallelOpts) ([]Outcome[T], ExecutionStats) {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes, ExecutionStats{ParallelEfficiency: "0.0x"}
	}
	opts = opts.withDefaults()
	start := time.Now()

	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
		outcomes[i] = Outcome[T]{Name: tasks[i].Name, Priority: tasks[i].Priority}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return tasks[order[a]].Priority > tasks[order[b]].Priority
	})

	collectCtx, cancel := context.WithTimeoutCause(ctx, opts.CollectTimeout, ErrCollectTimeout)
	defer cancel()

	var limiter *rate.Limiter
	if opts.RequestDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestDelay), 1)
	}

	var mu sync.Mutex
	done := make([]bool, len(tasks))
	record := func(i int, o Outcome[T]) {
		mu.Lock()
		defer mu.Unlock()
		if done[i] {
			return
		}
		done[i] = true
		outcomes[i] = o
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for _, i := range order {
			if limiter != nil {
				if err := limiter.Wait(collectCtx); err != nil {
					break
				}
			}
			if collectCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				record(i, runTask(collectCtx, tasks[i], opts.TaskTimeout))
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-finished:
	case <-collectCtx.Done():
		slog.Warn("parallel: collection deadline reached",
			slog.Int("tasks", len(tasks)),
			slog.Duration("timeout", opts.CollectTimeout),
		)
	}

	mu.Lock()
	for i := range outcomes {
		if done[i] {
			continue
		}
		done[i] = true
		err := ErrCollectTimeout
		if collectCtx.Err() != nil {
			err = context.Cause(collectCtx)
		}
		outcomes[i].Err = fmt.Errorf("%s: %w", tasks[i].Name, err)
		if errors.Is(err, ErrCollectTimeout) {
			metrics.ParallelTimeouts.Add(1)
		}
	}
	result := append([]Outcome[T](nil), outcomes...)
	mu.Unlock()

	stats := ComputeStats(result, time.Since(start))
	metrics.ParallelTasks.Add(int64(stats.Total))
	metrics.ParallelFailures.Add(int64(stats.Failed))
	return result, stats
}

// runTask runs one task under its own deadline. The caller stops waiting at the
// deadline even if Run ignores cancellation.
func runTask[T any](ctx context.Context, t Task[T], defaultTimeout time.Duration) Outcome[T] {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := t.Run(tctx)
		ch <- result{v, err}
	}()

	out := Outcome[T]{Name: t.Name, Priority: t.Priority}
	select {
	case r := <-ch:
		out.Value, out.Err = r.v, r.err
		if out.Err != nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
			out.Err = ErrTaskTimeout
		}
	case <-tctx.Done():
		out.Err = ErrTaskTimeout
	}
	// The batch deadline (or the caller) ended the task: ctx carries
	// ErrCollectTimeout as its cause, or the caller's own error.
	if out.Err != nil && ctx.Err() != nil {
		out.Err = context.Cause(ctx)
	}
	if errors.Is(out.Err, ErrTaskTimeout) || errors.Is(out.Err, ErrCollectTimeout) {
		metrics.ParallelTimeouts.Add(1)
	}
	out.Elapsed = time.Since(start)
	if out.Err != nil {
		out.Err = fmt.Errorf("%s: %w", t.Name, out.Err)
		slog.Debug("parallel: task failed", slog.String("task", t.Name), slog.Any("error", out.Err))
	} else {
		out.Success = true
	}
	return out
}

// ComputeStats derives batch statistics. Efficiency compares the fastest
// successful task against the batch wall time.
func ComputeStats[T any](outcomes []Outcome[T], total time.Duration) ExecutionStats {
	stats := ExecutionStats{Total: len(outcomes), TotalTime: total, ParallelEfficiency: "0.0x"}
	var sum, fastest time.Duration
	for _, o := range outcomes {
		if !o.Success {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		sum += o.Elapsed
		if fastest == 0 || o.Elapsed < fastest {
			fastest = o.Elapsed
		}
	}
	if stats.Succeeded > 0 {
		stats.AvgTaskTime = sum / time.Duration(stats.Succeeded)
	}
	if stats.Succeeded > 0 && total > 0 {
		eff := float64(len(outcomes)) * fastest.Seconds() / total.Seconds()
		stats.ParallelEfficiency = fmt.Sprintf("%.1fx", eff)
	}
	return stats
}

// Successful returns the values of all successful outcomes, in order.
func Successful[T any](outcomes []Outcome[T]) []T {
	var out []T
	for _, o := range outcomes {
		if o.Success {
			out = append(out, o.Value)
		}
	}
	return out
}
