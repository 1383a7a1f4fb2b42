package ui

import (
	"fmt"
	"strings"
)

// renderEarnings renders the earnings summary and recent activity.
func (m Model) renderEarnings() string {
	styles := m.theme.Styles()
	earnings := m.snapshot.Earnings

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Earnings"))
	b.WriteString("\n\n")

	if s := earnings.Summary; s != nil {
		cells := []string{
			fmt.Sprintf("Today %s", formatMoney(s.Today)),
			fmt.Sprintf("Week %s", formatMoney(s.Week)),
			fmt.Sprintf("Month %s", formatMoney(s.Month)),
			fmt.Sprintf("Deliveries %d", s.Deliveries),
		}
		b.WriteString(styles.Panel.Render(strings.Join(cells, "   ")))
		b.WriteString("\n\n")
	} else {
		b.WriteString(styles.MutedText.Render("No summary yet. Press r to refresh."))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.AccentText.Render("Recent activity"))
	b.WriteString("\n")
	if len(earnings.Activity) == 0 {
		b.WriteString(styles.MutedText.Render("No activity."))
		b.WriteString("\n")
		return b.String()
	}
	for _, a := range earnings.Activity {
		desc := a.Description
		if desc == "" && a.OrderID != "" {
			desc = "Order " + a.OrderID
		}
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			padRight(truncate(a.CreatedAt, 19), 19),
			padRight(formatMoney(a.Amount), 12),
			truncate(desc, maxInt(m.width-36, 10)),
		))
	}
	return b.String()
}
