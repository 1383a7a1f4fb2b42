package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleLoginKey drives the two-step phone and code form.
func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		if m.loginStep == 1 {
			m.loginStep = 0
			m.codeInput.Reset()
			m.codeInput.Blur()
			cmd := m.phoneInput.Focus()
			return m, cmd
		}
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		phone := m.phoneInput.Value()
		if m.loginStep == 0 {
			cmd := m.run(opRequestCode, func(ctx context.Context) error {
				return m.session.RequestCode(ctx, phone)
			})
			return m, cmd
		}
		code := m.codeInput.Value()
		cmd := m.run(opLogin, func(ctx context.Context) error {
			return m.session.Login(ctx, phone, code)
		})
		return m, cmd
	}

	var cmd tea.Cmd
	if m.loginStep == 0 {
		m.phoneInput, cmd = m.phoneInput.Update(msg)
	} else {
		m.codeInput, cmd = m.codeInput.Update(msg)
	}
	return m, cmd
}

// renderLogin renders the sign-in form.
func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render("Phone number"))
	b.WriteString("\n")
	b.WriteString(m.phoneInput.View())
	b.WriteString("\n")
	if m.loginStep == 1 {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render("Code sent by SMS"))
		b.WriteString("\n")
		b.WriteString(m.codeInput.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(ternary(m.loginStep == 0,
		"enter to request a code", "enter to sign in, esc to change number")))
	return styles.Panel.Render(b.String())
}
