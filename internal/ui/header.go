package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const offlineBanner = "You are offline. Actions that need the network are paused."

var viewTitles = map[View]string{
	ViewOrders:   "Orders",
	ViewEarnings: "Earnings",
	ViewLogs:     "Logs",
	ViewProof:    "Delivery proof",
	ViewLogin:    "Sign in",
}

// renderHeader renders the top bar: app name, rider, availability and view tabs.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	left := []string{styles.AccentText.Bold(true).Render("courier")}
	if rider := m.snapshot.Rider; rider != nil && rider.Name != "" {
		left = append(left, styles.Text.Render(rider.Name))
	}
	if m.snapshot.Auth.LoggedIn {
		if m.snapshot.Online {
			left = append(left, styles.SuccessText.Render("● Online"))
		} else {
			left = append(left, styles.MutedText.Render("○ Off duty"))
		}
	}

	var tabs []string
	for _, v := range []View{ViewOrders, ViewEarnings, ViewLogs} {
		label := fmt.Sprintf("%d %s", v+1, viewTitles[v])
		if v == m.currentView {
			tabs = append(tabs, styles.Selected.Padding(0, 1).Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Padding(0, 1).Render(label))
		}
	}
	if m.currentView == ViewProof || m.currentView == ViewLogin {
		tabs = []string{styles.Selected.Padding(0, 1).Render(viewTitles[m.currentView])}
	}

	leftText := strings.Join(left, "  ")
	rightText := strings.Join(tabs, "")
	gap := m.width - lipgloss.Width(leftText) - lipgloss.Width(rightText) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(leftText + strings.Repeat(" ", gap) + rightText)
}

// renderBanner renders the offline banner and the current toast. It returns
// an empty string when neither applies.
func (m Model) renderBanner() string {
	styles := m.theme.Styles()
	var lines []string
	if m.snapshot.Network.IsOffline {
		lines = append(lines, styles.Banner.Width(m.width).Render(offlineBanner))
	}
	if toast := m.snapshot.Toast; toast != nil && toast.Message != "" {
		lines = append(lines, styles.Toast.Width(m.width).Render(toast.Message))
	}
	return strings.Join(lines, "\n")
}

// renderFooter renders the notice line and key hints.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var b strings.Builder
	switch {
	case m.notice != "":
		b.WriteString(styles.DangerText.Render(m.notice))
		b.WriteString("\n")
	case m.busy != "":
		b.WriteString(styles.FaintText.Render(m.busy + "..."))
		b.WriteString("\n")
	}
	if m.currentView == ViewProof {
		b.WriteString(m.help.View(proofHelp{keys: m.keys}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

// renderIntro renders the first-run welcome card.
func (m Model) renderIntro() string {
	styles := m.theme.Styles()
	body := strings.Join([]string{
		styles.AccentText.Bold(true).Render("Welcome to courier"),
		"",
		"Accept orders, pick them up with the store's OTP and",
		"deliver them with a photo proof and the customer's OTP.",
		"",
		"Go online with o to receive new orders.",
		"",
		styles.FaintText.Render("Press any key to start."),
	}, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styles.Panel.BorderForeground(lipgloss.Color(m.theme.Accent)).Padding(1, 2).Render(body))
}
