package jobs

import (
	"context"
	"time"

	"matchpush/config"
	"matchpush/internal/gateway"
	"matchpush/internal/localization"
	"matchpush/internal/redis"
	"matchpush/internal/repository"
	"matchpush/internal/services"
	"matchpush/internal/teams"
	"matchpush/pkg/logger"
)

const (
	JobSchedule  = "schedule"
	JobReconcile = "reconcile"
	JobPresend   = "presend"
	JobAudit     = "audit"
)

const (
	SchedulerLockName  = "push-scheduler"
	ReconcilerLockName = "push-reconciler"
)

// LockNames maps the lock-guarded jobs to their job_locks rows. Presend
// and audit run unguarded and have no entry.
func LockNames() map[string]string {
	return map[string]string{
		JobSchedule:  SchedulerLockName,
		JobReconcile: ReconcilerLockName,
	}
}

// Services bundles everything the binaries wire up from config.
type Services struct {
	Scheduler  *services.SchedulerService
	Reconciler *services.ReconcilerService
	Presend    *services.PresendVerifier
	Correlator *services.CorrelatorService
	Auditor    *services.CountAuditor
	Locks      repository.LockRepository
}

// Build wires repositories, collaborator clients and services from
// configuration. db is the shared connection pool.
func Build(cfg *config.Config, db repository.DBTX, log *logger.Logger) (*Services, error) {
	resolver, err := teams.NewResolver(teams.DefaultRules())
	if err != nil {
		return nil, err
	}

	displayTZ, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		displayTZ = time.UTC
	}

	fixtureRepo := repository.NewFixtureRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	lockRepo := repository.NewLockRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	platform := gateway.NewClient(cfg.PlatformBaseURL, cfg.PlatformToken, cfg.PlatformTimeout)
	translator := localization.NewHTTPTranslator(cfg.LocalizationBaseURL, cfg.PlatformTimeout, log)

	var tracked teams.TrackedSource = teams.NewHTTPTrackedSource(cfg.AudienceBaseURL, cfg.PlatformTimeout)
	var deduper services.Deduper
	if redis.IsInitialized() {
		tracked = redis.NewTrackedCache(redis.GetClient(), tracked, cfg.TrackedIdentityTTL)
		deduper = redis.NewDedupStore(redis.GetClient())
	}

	builder := services.NewPayloadBuilder(resolver, tracked, translator, displayTZ)
	auditor := services.NewAuditWriter(auditRepo)

	return &Services{
		Scheduler: services.NewSchedulerService(
			fixtureRepo, ledgerRepo, lockRepo, platform, builder, auditor, log,
			time.Duration(cfg.SendLeadMinutes)*time.Minute, cfg.LockTTL,
		),
		Reconciler: services.NewReconcilerService(
			ledgerRepo, lockRepo, platform, auditor, db, log, cfg.LockTTL,
		),
		Presend: services.NewPresendVerifier(
			fixtureRepo, ledgerRepo, platform, builder, auditor, log,
			time.Duration(cfg.PresendHorizonMin)*time.Minute,
		),
		Correlator: services.NewCorrelatorService(
			ledgerRepo, deliveryRepo, deduper, log, cfg.CorrelationWindow,
		),
		Auditor: services.NewCountAuditor(ledgerRepo, platform, auditor, log),
		Locks:   lockRepo,
	}, nil
}

// DefaultRegistry registers the four periodic jobs against svc.
func DefaultRegistry(cfg *config.Config, svc *Services) *Registry {
	registry := NewRegistry()
	registry.Register(JobSchedule, func(ctx context.Context) (interface{}, error) {
		return svc.Scheduler.Run(ctx, cfg.LookaheadDays, SchedulerLockName)
	})
	registry.Register(JobReconcile, func(ctx context.Context) (interface{}, error) {
		return svc.Reconciler.Run(ctx, ReconcilerLockName)
	})
	registry.Register(JobPresend, func(ctx context.Context) (interface{}, error) {
		return svc.Presend.Run(ctx)
	})
	registry.Register(JobAudit, func(ctx context.Context) (interface{}, error) {
		return svc.Auditor.Run(ctx)
	})
	return registry
}
