package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/cli/formatter"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/domain"
)

func newClosuresCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "closures",
		Short: "Manage office closures",
	}
	cmd.AddCommand(
		newClosuresListCmd(app),
		newClosuresAddCmd(app),
		newClosuresRemoveCmd(app),
	)
	return cmd
}

func newClosuresListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List closures",
		RunE: func(cmd *cobra.Command, args []string) error {
			closures, err := app.Admin.ListClosures(context.Background())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(closures))
			for _, c := range closures {
				scope := "global"
				if c.Scope == domain.ScopeAdviser {
					scope = c.AdviserEmail
				}
				rows = append(rows, []string{
					c.ID[:8],
					c.StartDate.Format(calendar.DateLayout),
					c.EndDate.Format(calendar.DateLayout),
					scope,
					c.Description,
					strings.Join(c.Tags, ","),
				})
			}
			fmt.Print(formatter.RenderTable(
				[]string{"ID", "Start", "End", "Scope", "Description", "Tags"}, rows))
			return nil
		},
	}
}

func newClosuresAddCmd(app *App) *cobra.Command {
	var (
		input       contract.ClosureInput
		tags        []string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a closure",
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Tags = tags
			if interactive {
				if app.IsInteractive != nil && !app.IsInteractive() {
					return fmt.Errorf("interactive mode requires a terminal")
				}
				if err := runClosureForm(&input); err != nil {
					return err
				}
			}
			closure, err := app.Admin.CreateClosure(context.Background(), input)
			if err != nil {
				return describeValidation(err)
			}
			fmt.Printf("%s closure %s (%s → %s)\n",
				formatter.StyleGreen.Render("created"),
				closure.ID[:8],
				closure.StartDate.Format(calendar.DateLayout),
				closure.EndDate.Format(calendar.DateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&input.StartDate, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&input.EndDate, "end", "", "last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&input.Description, "description", "", "why the office is closed")
	cmd.Flags().StringVar(&input.Scope, "scope", "global", "global or adviser")
	cmd.Flags().StringVar(&input.AdviserEmail, "adviser", "", "adviser email for adviser-scoped closures")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (repeatable)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "fill the closure in a form")
	return cmd
}

// runClosureForm collects closure fields interactively.
func runClosureForm(input *contract.ClosureInput) error {
	adviserScoped := input.Scope == string(domain.ScopeAdviser)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("First day (YYYY-MM-DD)").
				Value(&input.StartDate),
			huh.NewInput().
				Title("Last day, inclusive (YYYY-MM-DD)").
				Value(&input.EndDate),
			huh.NewInput().
				Title("Description").
				Value(&input.Description),
			huh.NewConfirm().
				Title("Scoped to a single adviser?").
				Value(&adviserScoped),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Adviser email").
				Value(&input.AdviserEmail),
		).WithHideFunc(func() bool { return !adviserScoped }),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if adviserScoped {
		input.Scope = string(domain.ScopeAdviser)
	} else {
		input.Scope = string(domain.ScopeGlobal)
	}
	return nil
}

func newClosuresRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <closure-id>",
		Short: "Delete a closure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveClosureID(app, args[0])
			if err != nil {
				return err
			}
			if err := app.Admin.DeleteClosure(context.Background(), id); err != nil {
				return err
			}
			fmt.Printf("%s closure %s\n", formatter.StyleRed.Render("deleted"), id[:8])
			return nil
		},
	}
}

// resolveClosureID accepts a full UUID or an unambiguous prefix.
func resolveClosureID(app *App, input string) (string, error) {
	closures, err := app.Admin.ListClosures(context.Background())
	if err != nil {
		return "", err
	}
	var matches []string
	for _, c := range closures {
		if c.ID == input {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, input) {
			matches = append(matches, c.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("closure not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("closure ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// describeValidation prints field-level reasons before returning the error.
func describeValidation(err error) error {
	var vErr *contract.ValidationError
	if errors.As(err, &vErr) {
		for field, reason := range vErr.Fields {
			fmt.Printf("  %s: %s\n", formatter.StyleYellow.Render(field), reason)
		}
	}
	return err
}
