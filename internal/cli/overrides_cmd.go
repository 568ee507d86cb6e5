package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/cli/formatter"
	"github.com/clearbrook/advisory/internal/contract"
)

func newOverridesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Manage capacity overrides",
	}
	cmd.AddCommand(
		newOverridesListCmd(app),
		newOverridesAddCmd(app),
		newOverridesRemoveCmd(app),
	)
	return cmd
}

func newOverridesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List capacity overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := app.Admin.ListOverrides(context.Background())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(overrides))
			for _, o := range overrides {
				pod := "-"
				if o.PodType != nil {
					pod = string(*o.PodType)
				}
				rows = append(rows, []string{
					o.ID[:8],
					o.AdviserEmail,
					o.EffectiveDate.Format(calendar.DateLayout),
					fmt.Sprintf("%d", o.ClientLimitMonthly),
					pod,
					o.Notes,
				})
			}
			fmt.Print(formatter.RenderTable(
				[]string{"ID", "Adviser", "Effective", "Limit/mo", "Pod", "Notes"}, rows))
			return nil
		},
	}
}

func newOverridesAddCmd(app *App) *cobra.Command {
	var input contract.OverrideInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a capacity override",
		RunE: func(cmd *cobra.Command, args []string) error {
			override, err := app.Admin.CreateOverride(context.Background(), input)
			if err != nil {
				return describeValidation(err)
			}
			fmt.Printf("%s override %s: %s → %d/mo from %s\n",
				formatter.StyleGreen.Render("created"),
				override.ID[:8],
				override.AdviserEmail,
				override.ClientLimitMonthly,
				override.EffectiveDate.Format(calendar.DateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&input.AdviserEmail, "adviser", "", "adviser email")
	cmd.Flags().StringVar(&input.EffectiveDate, "effective", "", "first day the override applies (YYYY-MM-DD)")
	cmd.Flags().IntVar(&input.ClientLimitMonthly, "limit", 0, "monthly client limit")
	cmd.Flags().StringVar(&input.PodType, "pod", "", "pod type (solo or team)")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "free-form notes")
	return cmd
}

func newOverridesRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <override-id>",
		Short: "Delete a capacity override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveOverrideID(app, args[0])
			if err != nil {
				return err
			}
			if err := app.Admin.DeleteOverride(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("%s override %s\n", formatter.StyleRed.Render("deleted"), id[:8])
			return nil
		},
	}
}

func resolveOverrideID(app *App, input string) (string, error) {
	overrides, err := app.Admin.ListOverrides(context.Background())
	if err != nil {
		return "", err
	}
	var matches []string
	for _, o := range overrides {
		if o.ID == input {
			return o.ID, nil
		}
		if strings.HasPrefix(o.ID, input) {
			matches = append(matches, o.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("override not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("override ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
