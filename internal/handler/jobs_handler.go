package handler

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"matchpush/internal/jobs"
	"matchpush/internal/repository"
	"matchpush/internal/transport/httpdto"
	matchpush_errors "matchpush/pkg/errors"
)

// JobsHandler exposes the periodic jobs for manual one-shot runs. The
// jobs themselves stay safe to trigger at any time: each is lock-guarded
// or idempotent.
type JobsHandler struct {
	runner *jobs.Runner
	locks  repository.LockRepository
}

func NewJobsHandler(runner *jobs.Runner, locks repository.LockRepository) *JobsHandler {
	return &JobsHandler{runner: runner, locks: locks}
}

func (h *JobsHandler) Run(c *gin.Context) {
	name := c.Param("name")
	result, err := h.runner.RunOnce(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}

// Locks reports the lock row behind each serialized job, so an operator
// can see whether a run is in flight before triggering one manually.
func (h *JobsHandler) Locks(c *gin.Context) {
	now := time.Now().UTC()

	var out []httpdto.JobLockStatus
	for job, lockName := range jobs.LockNames() {
		status := httpdto.JobLockStatus{Job: job, Lock: lockName}
		l, err := h.locks.Get(c.Request.Context(), lockName)
		if err != nil && !errors.Is(err, matchpush_errors.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
			return
		}
		if err == nil {
			status.Held = l.HeldAt(now)
			status.LockedBy = l.LockedBy
			status.LockedAt = &l.LockedAt
			status.ExpiresAt = &l.ExpiresAt
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
