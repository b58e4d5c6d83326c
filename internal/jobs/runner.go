package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchpush/pkg/logger"
)

// RunFunc executes one job run and returns its result counts.
type RunFunc func(ctx context.Context) (interface{}, error)

// Registry maps job names to their entry points.
type Registry struct {
	jobs map[string]RunFunc
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]RunFunc)}
}

func (r *Registry) Register(name string, fn RunFunc) {
	r.jobs[name] = fn
}

func (r *Registry) Get(name string) (RunFunc, bool) {
	fn, ok := r.jobs[name]
	return fn, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runner executes registered jobs, either once (external timers own the
// cadence) or on an in-process ticker.
type Runner struct {
	registry *Registry
	log      *logger.Logger
}

func NewRunner(registry *Registry, log *logger.Logger) *Runner {
	return &Runner{registry: registry, log: log}
}

// RunOnce executes the named job a single time. Every run gets a fresh
// run id carried through the logger context and into audit details.
func (r *Runner) RunOnce(ctx context.Context, name string) (interface{}, error) {
	fn, ok := r.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown job %q (have: %v)", name, r.registry.Names())
	}

	runID := uuid.NewString()
	ctx = context.WithValue(ctx, logger.JobRunIdKey, runID)
	ctx = context.WithValue(ctx, logger.JobNameKey, name)

	start := time.Now()
	r.log.Info(ctx, "job started")
	result, err := fn(ctx)
	if err != nil {
		r.log.Error(ctx, "job failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	r.log.Info(ctx, "job finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Any("result", result),
	)
	return result, nil
}

// RunEvery runs the named job on a ticker until ctx is cancelled. A
// failed run logs and waits for the next tick.
func (r *Runner) RunEvery(ctx context.Context, name string, interval time.Duration) error {
	if _, ok := r.registry.Get(name); !ok {
		return fmt.Errorf("unknown job %q (have: %v)", name, r.registry.Names())
	}

	if _, err := r.RunOnce(ctx, name); err != nil {
		r.log.Errorf("initial %s run failed: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunOnce(ctx, name); err != nil {
				r.log.Errorf("%s run failed: %v", name, err)
			}
		}
	}
}
