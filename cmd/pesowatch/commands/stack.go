package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pesowatch/internal/alert"
	"github.com/wonny/pesowatch/internal/external/ratesource"
	"github.com/wonny/pesowatch/internal/ingest"
	"github.com/wonny/pesowatch/internal/monitor"
	"github.com/wonny/pesowatch/internal/notify"
	"github.com/wonny/pesowatch/internal/realtime"
	"github.com/wonny/pesowatch/internal/scheduler"
	"github.com/wonny/pesowatch/internal/scheduler/jobs"
	"github.com/wonny/pesowatch/internal/store"
	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/database"
	"github.com/wonny/pesowatch/pkg/httputil"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/metrics"
	"github.com/wonny/pesowatch/pkg/redis"
)

// stack is the wired application: every command starts from here so
// the dependency graph is assembled in exactly one place.
type stack struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	recorder  *metrics.Recorder
	rates     *store.RateRepository
	collector *ingest.Collector
	ledger    monitor.LedgerStore
	hub       *realtime.Hub
	monitor   *monitor.Monitor
	scheduler *scheduler.Scheduler
}

// initStack builds the full application from environment config.
func initStack() (*stack, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database and ensure the schema exists
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	// 4. Connect to Redis (optional)
	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Create the upstream source client
	httpClient := httputil.New(cfg, log).WithUserAgent(cfg.Source.UserAgent)
	source := ratesource.NewClient(httpClient, log, cfg.Source.BaseURL, cfg.Source.RequestsPerMinute)
	if redisClient.Enabled() {
		source = source.WithSharedLimiter(
			redis.NewRateLimiter(redisClient, "pesowatch"),
			cfg.Source.RequestsPerMinute,
		)
	}

	// 6. Create repositories and metrics
	rates := store.NewRateRepository(db.Pool)
	recorder := metrics.New()

	// 7. Create the collector
	collector := ingest.NewCollector(source, rates, recorder, log)

	// 8. Pick the cooldown ledger backend
	var ledger monitor.LedgerStore = store.NewLedgerRepository(db.Pool)
	if redisClient.Enabled() {
		ledger = redisLedger{store: redis.NewLedgerStore(redisClient, "pesowatch")}
	}

	// 9. Create the notifier (optional)
	var notifier monitor.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Telegram, log)
		if err != nil {
			redisClient.Close()
			db.Close()
			return nil, fmt.Errorf("create telegram notifier: %w", err)
		}
		notifier = tg
	}

	// 10. Create the websocket hub
	hub := realtime.NewHub(log)

	// 11. Create the monitor
	mon := monitor.New(rates, ledger, notifier, hub, recorder, log)

	// 12. Create the scheduler with both jobs
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewRateIngestionJob(collector, mon, cfg.Scheduler.IngestSpec, log)); err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("register ingestion job: %w", err)
	}
	if err := sched.AddJob(jobs.NewAlertSweepJob(mon, cfg.Scheduler.SweepSpec, log)); err != nil {
		redisClient.Close()
		db.Close()
		return nil, fmt.Errorf("register sweep job: %w", err)
	}

	return &stack{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     redisClient,
		recorder:  recorder,
		rates:     rates,
		collector: collector,
		ledger:    ledger,
		hub:       hub,
		monitor:   mon,
		scheduler: sched,
	}, nil
}

// Close releases external connections.
func (s *stack) Close() {
	s.redis.Close()
	s.db.Close()
}

// redisLedger adapts the Redis hash store to the monitor's ledger
// interface.
type redisLedger struct {
	store *redis.LedgerStore
}

func (r redisLedger) Load(ctx context.Context) (alert.Ledger, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return alert.Ledger(entries), nil
}

func (r redisLedger) Save(ctx context.Context, ledger alert.Ledger) error {
	return r.store.Save(ctx, map[string]time.Time(ledger))
}
