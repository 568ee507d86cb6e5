package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/cli/formatter"
	"github.com/clearbrook/advisory/internal/contract"
)

func newScheduleCmd(app *App) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "schedule <adviser-email>",
		Short: "Show one adviser's weekly capacity projection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.Availability.Schedule(context.Background(), contract.ScheduleRequest{
				AdviserEmail: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatSchedule(resp, weeks))
			return nil
		},
	}
	cmd.Flags().IntVar(&weeks, "weeks", 12, "number of weeks to print (0 = all)")
	return cmd
}

func newAvailabilityCmd(app *App) *cobra.Command {
	var (
		servicePackage string
		householdType  string
	)
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show each adviser's earliest available week",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := app.Availability.Earliest(context.Background(), contract.EarliestRequest{
				ServicePackage: servicePackage,
				HouseholdType:  householdType,
			})
			if err != nil {
				return err
			}
			fmt.Print(formatter.FormatEarliestRows(rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&servicePackage, "package", "", "filter by service package")
	cmd.Flags().StringVar(&householdType, "household", "", "filter by household type")
	return cmd
}
