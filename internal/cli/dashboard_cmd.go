package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/cli/formatter"
	"github.com/clearbrook/advisory/internal/contract"
	"github.com/clearbrook/advisory/internal/service"
)

func newDashboardCmd(app *App) *cobra.Command {
	var servicePackage string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live availability overview (q quits, r refreshes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("dashboard requires an interactive terminal")
			}
			model := newDashboardModel(app.Availability, servicePackage)
			_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&servicePackage, "package", "", "filter by service package")
	return cmd
}

type availabilityLoadedMsg []contract.EarliestRow

type availabilityErrMsg struct{ err error }

type dashboardModel struct {
	availability   service.AvailabilityService
	servicePackage string

	table   table.Model
	spinner spinner.Model
	loading bool
	err     error
}

func newDashboardModel(availability service.AvailabilityService, servicePackage string) dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(formatter.ColorHeader)

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "Adviser", Width: 32},
			{Title: "Pod", Width: 6},
			{Title: "Limit/mo", Width: 8},
			{Title: "Earliest week", Width: 14},
			{Title: "Monday", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(16),
	)

	return dashboardModel{
		availability:   availability,
		servicePackage: servicePackage,
		table:          tbl,
		spinner:        sp,
		loading:        true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m dashboardModel) load() tea.Cmd {
	return func() tea.Msg {
		rows, err := m.availability.Earliest(context.Background(), contract.EarliestRequest{
			ServicePackage: m.servicePackage,
		})
		if err != nil {
			return availabilityErrMsg{err: err}
		}
		return availabilityLoadedMsg(rows)
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.load())
		}

	case availabilityLoadedMsg:
		m.loading = false
		rows := make([]table.Row, 0, len(msg))
		for _, r := range msg {
			week, monday := "none", "-"
			if r.Available {
				week = r.EarliestWeekLabel
				monday = r.EarliestWeekMonday.Format(calendar.DateLayout)
			}
			rows = append(rows, table.Row{
				r.Email,
				string(r.PodType),
				strconv.Itoa(r.ClientLimitMonthly),
				week,
				monday,
			})
		}
		m.table.SetRows(rows)
		return m, nil

	case availabilityErrMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) View() string {
	header := formatter.Header("Adviser availability")
	if m.loading {
		return fmt.Sprintf("%s\n\n %s loading projections…\n", header, m.spinner.View())
	}
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s\n\npress r to retry, q to quit\n",
			header, formatter.StyleRed.Render(m.err.Error()))
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		header, m.table.View(), formatter.Dim("q quit · r refresh · ↑/↓ scroll"))
}
