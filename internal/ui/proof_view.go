package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/courier/internal/proof"
	"github.com/five82/courier/internal/state"
)

func (m Model) openProof(orderID string) (tea.Model, tea.Cmd) {
	if m.proof == nil {
		m.notice = "Proof upload is not available."
		return m, nil
	}
	m.proof.Close()
	m.proofOrderID = orderID
	m.currentView = ViewProof
	m.notice = ""
	m.pathInput.Reset()
	m.otpInput.Reset()
	m.otpInput.Blur()
	m.proofFocus = 0
	cmd := m.pathInput.Focus()
	return m, cmd
}

func (m *Model) closeProof() {
	if m.proof != nil {
		m.proof.Close()
	}
	m.proofOrderID = ""
	m.uploading = false
	m.pathInput.Blur()
	m.otpInput.Blur()
	m.currentView = ViewOrders
}

func (m Model) proofOrder() (state.Order, bool) {
	return m.snapshot.FindOrder(m.proofOrderID)
}

// handleProofKey processes keyboard input on the proof screen.
func (m Model) handleProofKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	order, ok := m.proofOrder()
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.closeProof()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		if m.proofFocus == 0 {
			m.proofFocus = 1
			m.pathInput.Blur()
			cmd := m.otpInput.Focus()
			return m, cmd
		}
		m.proofFocus = 0
		m.otpInput.Blur()
		cmd := m.pathInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Upload):
		if !ok || !m.proof.CanUpload() {
			m.notice = "Select a proof image first."
			if m.snapshot.Network.IsOffline {
				m.notice = "Connect to internet to upload proof."
			}
			return m, nil
		}
		m.uploading = true
		m.notice = ""
		cmd := m.upload(order, m.proof.StartUpload)
		return m, cmd
	case key.Matches(msg, m.keys.Retry):
		if !ok {
			return m, nil
		}
		m.uploading = true
		m.notice = ""
		cmd := m.upload(order, m.proof.Retry)
		return m, cmd
	case key.Matches(msg, m.keys.CancelUpload):
		m.proof.CancelUpload()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if m.proofFocus == 0 {
			path := m.pathInput.Value()
			if m.picker != nil {
				m.picker.Stage(path)
			}
			cmd := m.run(opSelect, func(ctx context.Context) error {
				return m.proof.SelectAsset(ctx, proof.SourceGallery)
			})
			return m, cmd
		}
		id, otp := m.proofOrderID, m.otpInput.Value()
		cmd := m.run(opDeliver, func(ctx context.Context) error {
			return m.orders.CompleteDelivery(ctx, id, otp)
		})
		return m, cmd
	}

	var cmd tea.Cmd
	if m.proofFocus == 0 {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else {
		m.otpInput, cmd = m.otpInput.Update(msg)
	}
	return m, cmd
}

func (m Model) upload(order state.Order, fn func(context.Context, state.Order) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return uploadDoneMsg{err: fn(ctx, order)}
	}
}

// renderProof renders the delivery proof screen.
func (m Model) renderProof() string {
	styles := m.theme.Styles()
	order, ok := m.proofOrder()
	if !ok {
		return styles.MutedText.Render("This order is no longer assigned. Press esc to go back.")
	}

	session := m.proof.Session()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(fmt.Sprintf("Deliver order %s", order.ID)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(order.Drop))
	b.WriteString("\n\n")

	b.WriteString(styles.Text.Render("1. Proof image"))
	b.WriteString("\n")
	b.WriteString(m.pathInput.View())
	b.WriteString("\n")
	if session.Asset != nil {
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("%s  %s  %d KB",
			truncate(session.Asset.FileName, 40), session.Asset.MimeType, session.Asset.SizeBytes/1024)))
		b.WriteString("\n")
	}
	b.WriteString(m.bar.ViewAs(float64(session.Progress) / 100))
	b.WriteString("  ")
	b.WriteString(m.renderPhase(session.Phase))
	b.WriteString("\n\n")

	b.WriteString(styles.Text.Render("2. Customer OTP"))
	b.WriteString("\n")
	b.WriteString(m.otpInput.View())
	b.WriteString("\n")
	return styles.Panel.Render(b.String())
}

func (m Model) renderPhase(phase proof.Phase) string {
	styles := m.theme.Styles()
	switch phase {
	case proof.PhaseSelected:
		return styles.Text.Render("Ready to upload")
	case proof.PhaseUploading:
		return styles.AccentText.Render("Uploading...")
	case proof.PhaseComplete:
		return styles.SuccessText.Render("Uploaded")
	case proof.PhaseFailed:
		return styles.DangerText.Render("Failed, ctrl+r to retry")
	case proof.PhaseCanceled:
		return styles.WarningText.Render("Canceled")
	default:
		return styles.FaintText.Render("Enter a file path and press enter")
	}
}
