package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"matchpush/internal/domain/audit"
	"matchpush/internal/domain/delivery"
	"matchpush/internal/domain/fixture"
	"matchpush/internal/domain/joblock"
	"matchpush/internal/domain/ledger"
	"matchpush/internal/gateway"
	"matchpush/internal/repository"
	matchpush_errors "matchpush/pkg/errors"
	"matchpush/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

// --- fixtures ---

type fakeFixtureRepo struct {
	fixtures map[uuid.UUID]fixture.Fixture
}

func newFakeFixtureRepo(fixtures ...fixture.Fixture) *fakeFixtureRepo {
	repo := &fakeFixtureRepo{fixtures: make(map[uuid.UUID]fixture.Fixture)}
	for _, f := range fixtures {
		repo.fixtures[f.ID] = f
	}
	return repo
}

func (r *fakeFixtureRepo) ListUpcoming(ctx context.Context, from, until time.Time) ([]fixture.Fixture, error) {
	var out []fixture.Fixture
	for _, f := range r.fixtures {
		if f.Status != fixture.StatusScheduled {
			continue
		}
		if !f.KickoffUTC.Before(from) && f.KickoffUTC.Before(until) {
			out = append(out, f)
		}
	}
	// deterministic order by kickoff
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].KickoffUTC.Before(out[i].KickoffUTC) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeFixtureRepo) GetByID(ctx context.Context, id uuid.UUID) (fixture.Fixture, error) {
	f, ok := r.fixtures[id]
	if !ok {
		return fixture.Fixture{}, matchpush_errors.ErrNotFound
	}
	return f, nil
}

// --- ledger ---

// fakeLedgerRepo mirrors the partial unique index: Create rejects a
// second active entry for the same fixture.
type fakeLedgerRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*ledger.Entry
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{entries: make(map[uuid.UUID]*ledger.Entry)}
}

func (r *fakeLedgerRepo) Create(ctx context.Context, tx repository.DBTX, e *ledger.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.FixtureID == e.FixtureID && isActive(existing.Status) && isActive(e.Status) {
			return matchpush_errors.ErrAlreadyExists
		}
	}
	clone := *e
	r.entries[e.ID] = &clone
	return nil
}

func isActive(s ledger.Status) bool {
	for _, active := range ledger.ActiveStatuses() {
		if s == active {
			return true
		}
	}
	return false
}

func (r *fakeLedgerRepo) GetActiveByFixture(ctx context.Context, fixtureID uuid.UUID) (ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.FixtureID == fixtureID && isActive(e.Status) {
			return *e, nil
		}
	}
	return ledger.Entry{}, matchpush_errors.ErrNotFound
}

func (r *fakeLedgerRepo) GetByDispatchID(ctx context.Context, dispatchID string) (ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.DispatchID.Valid && e.DispatchID.String == dispatchID {
			return *e, nil
		}
	}
	return ledger.Entry{}, matchpush_errors.ErrNotFound
}

func (r *fakeLedgerRepo) ListBySendAt(ctx context.Context, sendAt time.Time) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, e := range r.entries {
		if e.SendAtUTC.Equal(sendAt) && isActive(e.Status) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListPendingBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, e := range r.entries {
		if e.Status == ledger.StatusPending && !e.SendAtUTC.Before(from) && e.SendAtUTC.Before(until) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListActiveBetween(ctx context.Context, from, until time.Time) ([]ledger.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Entry
	for _, e := range r.entries {
		if isActive(e.Status) && !e.SendAtUTC.Before(from) && e.SendAtUTC.Before(until) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) CountPendingAfter(ctx context.Context, after time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if e.Status == ledger.StatusPending && e.SendAtUTC.After(after) {
			count++
		}
	}
	return count, nil
}

func (r *fakeLedgerRepo) UpdateRemoteIDs(ctx context.Context, id uuid.UUID, remoteScheduleID string, dispatchID sql.NullString) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return matchpush_errors.ErrNotFound
	}
	e.RemoteScheduleID = remoteScheduleID
	e.DispatchID = dispatchID
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeLedgerRepo) MarkSent(ctx context.Context, id uuid.UUID, confirmationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return matchpush_errors.ErrNotFound
	}
	if e.Status == ledger.StatusPending {
		e.Status = ledger.StatusSent
		e.ConfirmationID = sql.NullString{String: confirmationID, Valid: confirmationID != ""}
	}
	return nil
}

func (r *fakeLedgerRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok && e.Status == ledger.StatusPending {
		e.Status = ledger.StatusFailed
	}
	return nil
}

func (r *fakeLedgerRepo) DeleteByRemoteScheduleID(ctx context.Context, tx repository.DBTX, remoteScheduleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.RemoteScheduleID == remoteScheduleID {
			delete(r.entries, id)
		}
	}
	return nil
}

func (r *fakeLedgerRepo) activeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, e := range r.entries {
		if isActive(e.Status) {
			count++
		}
	}
	return count
}

// --- locks ---

type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[string]struct {
		runner  string
		expires time.Time
	}
	now func() time.Time
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{
		locks: make(map[string]struct {
			runner  string
			expires time.Time
		}),
		now: time.Now,
	}
}

func (r *fakeLockRepo) Acquire(ctx context.Context, name, runnerID string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	if held, ok := r.locks[name]; ok && held.expires.After(now) && held.runner != runnerID {
		return false, nil
	}
	r.locks[name] = struct {
		runner  string
		expires time.Time
	}{runner: runnerID, expires: now.Add(ttl)}
	return true, nil
}

func (r *fakeLockRepo) Get(ctx context.Context, name string) (joblock.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	held, ok := r.locks[name]
	if !ok {
		return joblock.Lock{}, matchpush_errors.ErrNotFound
	}
	return joblock.Lock{Name: name, LockedBy: held.runner, ExpiresAt: held.expires}, nil
}

func (r *fakeLockRepo) Release(ctx context.Context, name, runnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	if held, ok := r.locks[name]; ok && held.runner == runnerID && held.expires.After(now) {
		held.expires = now
		r.locks[name] = held
	}
	return nil
}

// --- gateway ---

type createCall struct {
	req  gateway.CreateScheduleRequest
	resp gateway.CreateScheduleResponse
}

type fakeGateway struct {
	mu          sync.Mutex
	creates     []createCall
	cancels     []string
	cancelTypes []gateway.MessageType
	schedules   []gateway.Schedule
	failNext    error
	nextID      int
}

func (g *fakeGateway) CreateSchedule(ctx context.Context, req gateway.CreateScheduleRequest) (gateway.CreateScheduleResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return gateway.CreateScheduleResponse{}, err
	}
	g.nextID++
	resp := gateway.CreateScheduleResponse{
		ScheduleID: fmt.Sprintf("sched-%d", g.nextID),
		DispatchID: fmt.Sprintf("disp-%d", g.nextID),
	}
	g.creates = append(g.creates, createCall{req: req, resp: resp})
	return resp, nil
}

func (g *fakeGateway) CancelSchedule(ctx context.Context, scheduleID string, msgType gateway.MessageType) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return err
	}
	g.cancels = append(g.cancels, scheduleID)
	g.cancelTypes = append(g.cancelTypes, msgType)
	return nil
}

func (g *fakeGateway) ListUpcomingSchedules(ctx context.Context, until time.Time) ([]gateway.Schedule, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.Schedule(nil), g.schedules...), nil
}

// --- deliveries ---

type fakeDeliveryRepo struct {
	mu       sync.Mutex
	rows     []delivery.Confirmation
	failNext error
}

func (r *fakeDeliveryRepo) Create(ctx context.Context, c *delivery.Confirmation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	for _, existing := range r.rows {
		if existing.ExternalRecipientID == c.ExternalRecipientID &&
			existing.ConfirmationType == c.ConfirmationType &&
			existing.PlatformTimestamp.Equal(c.PlatformTimestamp) {
			return matchpush_errors.ErrAlreadyExists
		}
	}
	r.rows = append(r.rows, *c)
	return nil
}

// --- audit ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *fakeAuditRepo) Create(ctx context.Context, tx repository.DBTX, e *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}
