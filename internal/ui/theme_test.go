package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/courier/internal/orderstatus"
	"github.com/five82/courier/internal/state"
)

func TestThemeFor(t *testing.T) {
	if got := ThemeFor(state.ThemeDark).Name; got != "dark" {
		t.Fatalf("ThemeFor(dark).Name = %q", got)
	}
	if got := ThemeFor(state.ThemeLight).Name; got != "light" {
		t.Fatalf("ThemeFor(light).Name = %q", got)
	}
	if got := ThemeFor("sepia").Name; got != "light" {
		t.Fatalf("ThemeFor(unknown).Name = %q, want light fallback", got)
	}
}

func TestNextMode(t *testing.T) {
	if NextMode(state.ThemeLight) != state.ThemeDark || NextMode(state.ThemeDark) != state.ThemeLight {
		t.Fatal("NextMode does not alternate")
	}
	if NextMode("") != state.ThemeDark {
		t.Fatal("NextMode of empty should be dark")
	}
}

func TestThemesCoverEveryStatus(t *testing.T) {
	for _, th := range []Theme{lightTheme(), darkTheme()} {
		for _, s := range orderstatus.All() {
			if th.StatusColors[s] == "" {
				t.Errorf("%s theme has no color for %s", th.Name, s)
			}
		}
	}
}

func TestStatusStyle_UnknownFallsBackToMuted(t *testing.T) {
	th := lightTheme()
	styles := th.Styles()
	if got := styles.StatusStyle("LOST").GetBackground(); got != lipgloss.Color(th.Muted) {
		t.Fatalf("unknown status background = %v, want %v", got, th.Muted)
	}
	if got := styles.StatusStyle(orderstatus.Delivered).GetBackground(); got != lipgloss.Color(th.StatusColors[orderstatus.Delivered]) {
		t.Fatalf("delivered background = %v", got)
	}
}
