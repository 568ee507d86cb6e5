package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/cli/formatter"
	"github.com/clearbrook/advisory/internal/contract"
)

func newAllocateCmd(app *App) *cobra.Command {
	var (
		servicePackage string
		householdType  string
	)
	cmd := &cobra.Command{
		Use:   "allocate <deal-id>",
		Short: "Assign a deal to the adviser with the soonest available week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := contract.NewAllocateRequest(args[0])
			req.ServicePackage = servicePackage
			req.HouseholdType = householdType

			resp, err := app.Allocation.Allocate(context.Background(), req)
			if err != nil {
				var allocErr *contract.AllocateError
				if errors.As(err, &allocErr) {
					fmt.Println(formatter.StyleRed.Render(allocErr.Error()))
					for _, d := range allocErr.Diagnostics {
						fmt.Printf("  %s: %s\n", d.Email, formatter.Dim(d.Reason))
					}
				}
				return err
			}

			fmt.Printf("%s %s → %s (week %s, %s)\n",
				formatter.StyleGreen.Render("allocated"),
				resp.DealID,
				formatter.Bold(resp.AdviserEmail),
				resp.EarliestWeekLabel,
				resp.EarliestWeek.Format("2006-01-02"))
			for _, d := range resp.Diagnostics {
				fmt.Printf("  %s: %s\n", d.Email, formatter.Dim(d.Reason))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&servicePackage, "package", "", "override the deal's service package")
	cmd.Flags().StringVar(&householdType, "household", "", "narrow eligibility to a household type")
	return cmd
}
