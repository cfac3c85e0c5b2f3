package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/musterd/internal/authz"
	"github.com/example/musterd/internal/calendar"
	"github.com/example/musterd/internal/config"
	"github.com/example/musterd/internal/ledger"
	"github.com/example/musterd/internal/muster"
	"github.com/example/musterd/internal/persistence"
	"github.com/example/musterd/internal/persistence/sqlite"
	"github.com/example/musterd/internal/schedule"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	members := sqlite.NewMemberRepository(pool)
	statuses := sqlite.NewStatusRepository(pool)
	leave := sqlite.NewLeaveRepository(pool)
	holidays := sqlite.NewHolidayRepository(pool)
	configs := sqlite.NewConfigRepository(pool)
	markers := sqlite.NewMarkerRepository(pool)

	idGenerator := func() string { return uuid.NewString() }
	now := time.Now

	cal := calendar.NewCalendar(leave, holidays, idGenerator, now, calendar.WithLogger(logger))
	if cfg.HolidaySeedPath != "" {
		if err := cal.SeedHolidays(ctx, cfg.HolidaySeedPath); err != nil {
			logger.Error("failed to seed holidays", "error", err)
			os.Exit(1)
		}
	}

	statusLedger := ledger.NewLedger(statuses, now, logger)
	policy := authz.NewPolicy(members, now, logger)

	if granted, err := policy.Bootstrap(ctx, cfg.BootstrapAdminID); err != nil {
		logger.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	} else if granted {
		logger.Info("bootstrap admin granted", "member_id", cfg.BootstrapAdminID)
	}

	settings, err := loadSettings(ctx, configs)
	if err != nil {
		logger.Error("failed to load scheduling configuration", "error", err)
		os.Exit(1)
	}

	gateway := newConsoleGateway(os.Stdout, cfg.GroupChatID, logger)

	var engine *muster.Engine
	fire := func(ctx context.Context, kind schedule.EventKind, date string) {
		engine.Fire(ctx, kind, date)
	}
	scheduler := schedule.NewScheduler(markers, fire, settings, now, logger)

	engine = muster.NewEngine(muster.Params{
		Members:   members,
		Markers:   markers,
		Configs:   configs,
		Ledger:    statusLedger,
		Calendar:  cal,
		Policy:    policy,
		Scheduler: scheduler,
		Gateway:   gateway,
		Now:       now,
		Logger:    logger,
	})

	logger.Info("musterd starting",
		"bot_id", cfg.BotID,
		"checkin", settings.Checkin.String(),
		"reminder", settings.Reminder.String(),
		"summary", settings.Summary.String(),
		"timezone", settings.Timezone)

	if err := scheduler.Run(ctx); err != nil {
		logger.Error("scheduler stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("musterd stopped")
}

// loadSettings reads the scheduling configuration seeded by Migrate. The
// stored entries are always complete, so a parse failure here means the
// database was edited by hand.
func loadSettings(ctx context.Context, configs persistence.ConfigRepository) (schedule.Settings, error) {
	stored, err := configs.ListConfig(ctx)
	if err != nil {
		return schedule.Settings{}, err
	}
	entries := make(map[string]string, len(stored))
	for _, entry := range stored {
		entries[entry.Key] = entry.Value
	}
	return schedule.ParseSettings(entries)
}
