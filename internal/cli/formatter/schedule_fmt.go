package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clearbrook/advisory/internal/calendar"
	"github.com/clearbrook/advisory/internal/contract"
)

// FormatSchedule renders one adviser's capacity projection as a table, with
// the earliest selectable week marked.
func FormatSchedule(resp *contract.ScheduleResponse, limitWeeks int) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Schedule: %s", resp.Adviser.Email)) + "\n")

	if resp.Available {
		b.WriteString(fmt.Sprintf("Earliest available week: %s (%s)\n\n",
			Bold(calendar.ISOWeekLabel(resp.EarliestWeek)),
			resp.EarliestWeek.Format(calendar.DateLayout)))
	} else {
		b.WriteString(StyleRed.Render("No availability within the projection horizon") + "\n\n")
	}

	rows := resp.Rows
	if limitWeeks > 0 && len(rows) > limitWeeks {
		rows = rows[:limitWeeks]
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		week := row.Label
		if resp.Available && row.Anchor.Equal(resp.EarliestWeek) {
			week = StyleGreen.Render(week + " ◀")
		}
		diff := strconv.Itoa(row.Difference)
		switch {
		case row.Difference > 0:
			diff = StyleRed.Render("+" + strconv.Itoa(row.Difference))
		case row.Difference < 0:
			diff = StyleGreen.Render(diff)
		}
		table = append(table, []string{
			week,
			row.Anchor.Format(calendar.DateLayout),
			strconv.Itoa(row.ClarifyCount),
			strconv.Itoa(row.KickoffCount),
			strconv.Itoa(row.DealNoClarifyCount),
			OOOIndicator(row.OOO.Kind, row.OOO.Days),
			strconv.Itoa(row.Target),
			strconv.Itoa(row.Actual),
			diff,
		})
	}

	b.WriteString(RenderTable(
		[]string{"Week", "Monday", "Clarify", "KickOff", "Queued", "OOO", "Target", "Actual", "Diff"},
		table,
	))
	if limitWeeks > 0 && len(resp.Rows) > limitWeeks {
		b.WriteString(Dim(fmt.Sprintf("… %d more weeks (use --weeks to widen)\n", len(resp.Rows)-limitWeeks)))
	}
	return b.String()
}

// FormatEarliestRows renders the availability overview table.
func FormatEarliestRows(rows []contract.EarliestRow) string {
	var b strings.Builder
	b.WriteString(Header("Earliest availability") + "\n")

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		week := StyleRed.Render("none")
		monday := "-"
		if row.Available {
			week = StyleGreen.Render(row.EarliestWeekLabel)
			monday = row.EarliestWeekMonday.Format(calendar.DateLayout)
		}
		table = append(table, []string{
			row.Email,
			strings.Join(row.ServicePackages, ","),
			string(row.PodType),
			strconv.Itoa(row.ClientLimitMonthly),
			week,
			monday,
		})
	}

	b.WriteString(RenderTable(
		[]string{"Adviser", "Packages", "Pod", "Limit/mo", "Earliest week", "Monday"},
		table,
	))
	return b.String()
}
