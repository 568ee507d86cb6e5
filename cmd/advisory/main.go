package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/clearbrook/advisory/internal/capacity"
	"github.com/clearbrook/advisory/internal/cli"
	"github.com/clearbrook/advisory/internal/crm"
	"github.com/clearbrook/advisory/internal/db"
	"github.com/clearbrook/advisory/internal/hr"
	"github.com/clearbrook/advisory/internal/httpapi"
	"github.com/clearbrook/advisory/internal/notify"
	"github.com/clearbrook/advisory/internal/repository"
	"github.com/clearbrook/advisory/internal/service"
	"github.com/clearbrook/advisory/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine DB path: env var or default ~/.advisory/advisory.db
	dbPath := os.Getenv("ADVISORY_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".advisory", "advisory.db")
	}

	// System timezone for civil-date decisions.
	tzName := os.Getenv("ADVISORY_TZ")
	if tzName == "" {
		tzName = "Australia/Sydney"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return fmt.Errorf("loading timezone %q: %w", tzName, err)
	}

	httpAddr := os.Getenv("ADVISORY_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8600"
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Open database
	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	closureRepo := repository.NewSQLiteClosureRepo(database)
	overrideRepo := repository.NewSQLiteOverrideRepo(database)
	allocationRepo := repository.NewSQLiteAllocationRepo(database)
	employeeRepo := repository.NewSQLiteEmployeeRepo(database)
	leaveRepo := repository.NewSQLiteLeaveRepo(database)
	settingsRepo := repository.NewSQLiteSettingsRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	// Wire external clients
	var crmObserver crm.Observer = crm.NoopObserver{}
	if envEnabled("ADVISORY_LOG_CALLS") {
		crmObserver = crm.NewLogObserver(os.Stderr)
	}
	crmClient := crm.NewClient(crm.LoadConfig(), crmObserver)
	hrClient := hr.NewClient(hr.LoadConfig(), hr.StaticTokenSource(os.Getenv("ADVISORY_HR_TOKEN")))

	// Wire the store gateway and engine
	gateway := store.New(crmClient, closureRepo, overrideRepo, allocationRepo, employeeRepo, leaveRepo, settingsRepo)
	engine := capacity.NewEngine(gateway)

	var useCaseObserver service.UseCaseObserver = service.NoopUseCaseObserver{}
	if envEnabled("ADVISORY_LOG_USECASES") {
		useCaseObserver = service.NewLogUseCaseObserver(os.Stderr)
	}

	// Wire services
	allocation := service.NewAllocationService(gateway, engine, notify.NewSlogNotifier(logger), useCaseObserver, logger, loc)
	availability := service.NewAvailabilityService(gateway, engine, useCaseObserver, loc)
	admin := service.NewAdminService(closureRepo, overrideRepo, gateway, useCaseObserver)
	syncSvc := service.NewSyncService(hrClient, uow, useCaseObserver, loc)

	server := httpapi.NewServer(allocation, availability, admin, logger)

	app := &cli.App{
		Allocation:   allocation,
		Availability: availability,
		Admin:        admin,
		Sync:         syncSvc,
		HTTPAddr:     httpAddr,
		Serve: func(addr string) error {
			return server.ListenAndServe(signalContext(), addr)
		},
	}

	// Detect interactive terminal for forms and the dashboard.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

func envEnabled(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
