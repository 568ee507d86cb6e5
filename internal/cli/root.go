package cli

import (
	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Allocation   service.AllocationService
	Availability service.AvailabilityService
	Admin        service.AdminService
	Sync         service.SyncService

	// HTTPAddr is where "advisory serve" listens.
	HTTPAddr string
	// Serve runs the HTTP server; wired in main so the CLI stays free of
	// server construction.
	Serve func(addr string) error

	// IsInteractive reports whether stdin is a terminal; interactive
	// forms and the dashboard require it.
	IsInteractive func() bool
}

// NewRootCmd creates the top-level "advisory" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "advisory",
		Short:         "Adviser allocation and weekly capacity service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(app),
		newAllocateCmd(app),
		newScheduleCmd(app),
		newAvailabilityCmd(app),
		newClosuresCmd(app),
		newOverridesCmd(app),
		newSyncCmd(app),
		newDashboardCmd(app),
	)
	return root
}
