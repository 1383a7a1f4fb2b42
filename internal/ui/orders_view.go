package ui

import (
	"fmt"
	"strings"

	"github.com/five82/courier/internal/orders"
	"github.com/five82/courier/internal/state"
)

// renderOrders renders the order list with a detail panel for the selection.
func (m Model) renderOrders() string {
	styles := m.theme.Styles()
	list := m.snapshot.Orders

	var b strings.Builder
	title := fmt.Sprintf("Assigned orders (%d)  Total %s", len(list), formatMoney(orders.TotalEarning(list)))
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")

	if len(list) == 0 {
		msg := "No orders assigned yet."
		if !m.snapshot.Online {
			msg = "You are off duty. Press o to go online."
		}
		b.WriteString(styles.MutedText.Render(msg))
		b.WriteString("\n")
		if m.pickupFor != "" {
			b.WriteString(m.renderPickupPrompt())
		}
		return b.String()
	}

	nameWidth := clampInt((m.width-40)/2, 12, 40)
	for i, o := range list {
		row := fmt.Sprintf("%2d  %s  %s  %s",
			o.QueuePosition,
			padRight(truncate(o.Pickup, nameWidth), nameWidth),
			padRight(truncate(o.Drop, nameWidth), nameWidth),
			padRight(formatMoney(o.Earning), 10),
		)
		badge := styles.StatusStyle(o.Status).Render(o.Status.Label())
		if i == m.selected {
			b.WriteString(styles.Selected.Render(row))
		} else {
			b.WriteString(styles.Text.Render(row))
		}
		b.WriteString(" ")
		b.WriteString(badge)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderOrderDetail(list[m.selected]))
	if m.pickupFor != "" {
		b.WriteString("\n")
		b.WriteString(m.renderPickupPrompt())
	}
	return b.String()
}

func (m Model) renderOrderDetail(o state.Order) string {
	styles := m.theme.Styles()
	lines := []string{
		styles.AccentText.Bold(true).Render("Order " + o.ID),
		fmt.Sprintf("Pickup   %s", o.Pickup),
		fmt.Sprintf("Drop     %s", o.Drop),
		fmt.Sprintf("Earning  %s", formatMoney(o.Earning)),
	}
	if o.ETA != "" {
		lines = append(lines, fmt.Sprintf("ETA      %s", o.ETA))
	}
	if o.Alert != "" {
		lines = append(lines, styles.WarningText.Render("! "+o.Alert))
	}
	if len(o.Items) > 0 {
		items := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, fmt.Sprintf("%dx %s", it.Qty, it.Name))
		}
		lines = append(lines, "Items    "+strings.Join(items, ", "))
	}
	return styles.Panel.Render(strings.Join(lines, "\n"))
}

func (m Model) renderPickupPrompt() string {
	styles := m.theme.Styles()
	return styles.Panel.Render(
		styles.Text.Render("Enter the pickup OTP for order "+m.pickupFor) + "\n" +
			m.pickupInput.View() + "\n" +
			styles.FaintText.Render("enter to confirm, esc to cancel"),
	)
}
