package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/cli/formatter"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the cached HR directory and approved leave",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Sync.SyncHR(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("%s %d employees, %d leave records\n",
				formatter.StyleGreen.Render("synced"),
				result.Employees,
				result.LeaveRecords)
			return nil
		},
	}
}
