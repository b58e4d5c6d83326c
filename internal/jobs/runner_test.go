package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchpush/pkg/logger"
)

func TestRunOnceExecutesRegisteredJob(t *testing.T) {
	registry := NewRegistry()
	var gotRunID string
	registry.Register("demo", func(ctx context.Context) (interface{}, error) {
		gotRunID, _ = ctx.Value(logger.JobRunIdKey).(string)
		return map[string]int{"created": 2}, nil
	})

	runner := NewRunner(registry, logger.New(logger.DevelopmentMode))
	result, err := runner.RunOnce(context.Background(), "demo")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"created": 2}, result)
	assert.NotEmpty(t, gotRunID, "each run carries a run id")
}

func TestRunOnceDistinctRunIDs(t *testing.T) {
	registry := NewRegistry()
	var runIDs []string
	registry.Register("demo", func(ctx context.Context) (interface{}, error) {
		id, _ := ctx.Value(logger.JobRunIdKey).(string)
		runIDs = append(runIDs, id)
		return nil, nil
	})

	runner := NewRunner(registry, logger.New(logger.DevelopmentMode))
	_, err := runner.RunOnce(context.Background(), "demo")
	require.NoError(t, err)
	_, err = runner.RunOnce(context.Background(), "demo")
	require.NoError(t, err)

	require.Len(t, runIDs, 2)
	assert.NotEqual(t, runIDs[0], runIDs[1])
}

func TestRunOnceUnknownJob(t *testing.T) {
	runner := NewRunner(NewRegistry(), logger.New(logger.DevelopmentMode))
	_, err := runner.RunOnce(context.Background(), "nope")
	assert.ErrorContains(t, err, "unknown job")
}

func TestRunOnceJobError(t *testing.T) {
	registry := NewRegistry()
	registry.Register("broken", func(ctx context.Context) (interface{}, error) {
		return nil, assert.AnError
	})

	runner := NewRunner(registry, logger.New(logger.DevelopmentMode))
	_, err := runner.RunOnce(context.Background(), "broken")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRegistryNamesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register("b", func(ctx context.Context) (interface{}, error) { return nil, nil })
	registry.Register("a", func(ctx context.Context) (interface{}, error) { return nil, nil })
	registry.Register("c", func(ctx context.Context) (interface{}, error) { return nil, nil })

	assert.Equal(t, []string{"a", "b", "c"}, registry.Names())
}

func TestRunEveryStopsOnCancel(t *testing.T) {
	registry := NewRegistry()
	runs := 0
	registry.Register("demo", func(ctx context.Context) (interface{}, error) {
		runs++
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(registry, logger.New(logger.DevelopmentMode))
	err := runner.RunEvery(ctx, "demo", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runs, "initial run happens before the first tick")
}
