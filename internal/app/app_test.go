package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/orders"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/session"
	"github.com/five82/courier/internal/state"
)

func testConfig(apiURL string) config.Config {
	cfg := config.Default()
	cfg.APIURL = apiURL
	return cfg
}

func TestBuild_GenericFailureShowsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Rider suspended"}`))
	}))
	defer srv.Close()

	c, err := Build(testConfig(srv.URL), filepath.Join(t.TempDir(), "prefs.toml"), nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	defer c.Close()

	if _, err := c.Client.FetchProfile(context.Background()); err == nil {
		t.Fatal("FetchProfile succeeded on 403")
	}
	if toast := c.Store.Snapshot().Toast; toast == nil || toast.Message != "Rider suspended" {
		t.Fatalf("toast = %#v", toast)
	}
}

func TestBuild_UnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	if err := prefs.Save(prefsPath, prefs.Prefs{AuthToken: "stale", ThemeMode: "dark"}); err != nil {
		t.Fatalf("Save prefs: %v", err)
	}
	c, err := Build(testConfig(srv.URL), prefsPath, nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	defer c.Close()

	if c.Store.Snapshot().ThemeMode != state.ThemeDark {
		t.Fatal("theme from prefs not applied")
	}
	c.Client.SetToken("stale")
	c.Store.Dispatch(state.SetAuth(state.Auth{Token: "stale", LoggedIn: true}))

	_, _ = c.Client.FetchProfile(context.Background())

	snap := c.Store.Snapshot()
	if snap.Auth.LoggedIn || snap.Auth.Token != "" {
		t.Fatalf("auth = %#v, want logged out", snap.Auth)
	}
	if snap.Toast == nil || snap.Toast.Message != session.ToastExpired {
		t.Fatalf("toast = %#v", snap.Toast)
	}
	if c.Client.Token() != "" {
		t.Fatal("client token not cleared")
	}
	stored, err := prefs.Load(prefsPath)
	if err != nil || stored.AuthToken != "" {
		t.Fatalf("stored token = %q (%v), want empty", stored.AuthToken, err)
	}
}

func TestBuild_SignOutDropsInFlightRefresh(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/rider/orders" {
			http.NotFound(w, r)
			return
		}
		close(entered)
		<-release
		_, _ = w.Write([]byte(`[{"id":"o1","pickup":"P","drop":"D","status":"ASSIGNED"}]`))
	}))
	defer srv.Close()

	c, err := Build(testConfig(srv.URL), filepath.Join(t.TempDir(), "prefs.toml"), nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	defer c.Close()
	c.Client.SetToken("tok")
	c.Store.Dispatch(state.SetAuth(state.Auth{Token: "tok", LoggedIn: true}))

	done := make(chan error, 1)
	go func() { done <- c.Orders.Refresh(context.Background()) }()
	<-entered
	c.Session.Clear()
	close(release)

	if err := <-done; !errors.Is(err, orders.ErrStale) {
		t.Fatalf("Refresh error = %v, want ErrStale", err)
	}
	snap := c.Store.Snapshot()
	if snap.Auth.LoggedIn || len(snap.Orders) != 0 {
		t.Fatalf("signed out state holds %d orders (logged in %t)", len(snap.Orders), snap.Auth.LoggedIn)
	}
}

func TestBuild_NetworkFailureMarksOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"r1","name":"Asha"}`))
	}))
	deadURL := srv.URL
	srv.Close()

	c, err := Build(testConfig(deadURL), filepath.Join(t.TempDir(), "prefs.toml"), nil)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	defer c.Close()

	if _, err := c.Client.FetchProfile(context.Background()); err == nil {
		t.Fatal("FetchProfile succeeded against a closed server")
	}
	if !c.Store.Snapshot().Network.IsOffline {
		t.Fatal("network failure did not mark the store offline")
	}
	if c.Store.Snapshot().Toast != nil {
		t.Fatal("network failure should not toast")
	}
}

func TestBuild_RejectsBadURL(t *testing.T) {
	if _, err := Build(testConfig("http://"), filepath.Join(t.TempDir(), "prefs.toml"), nil); err == nil {
		t.Fatal("Build accepted an API URL without host")
	}
}

func TestBearerHeader(t *testing.T) {
	if got := bearerHeader("abc").Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("Authorization = %q", got)
	}
	if got := bearerHeader("").Get("Authorization"); got != "" {
		t.Fatalf("Authorization without token = %q", got)
	}
}

func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("api_url = %q\nlog_file = %q\n", apiURL, filepath.Join(dir, "courier.log"))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLogin_PromptsForCodeAndStoresToken(t *testing.T) {
	var verified map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/rider/auth/request-otp":
			_, _ = w.Write([]byte(`{"success":true}`))
		case "/api/v1/rider/auth/verify-otp":
			_ = json.NewDecoder(r.Body).Decode(&verified)
			_, _ = w.Write([]byte(`{"token":"tok-1","rider":{"id":"r1","name":"Asha"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")
	var out bytes.Buffer
	err := Login(context.Background(), LoginOptions{
		ConfigPath: writeConfig(t, srv.URL),
		PrefsPath:  prefsPath,
		Phone:      "9999",
		In:         strings.NewReader("4321\n"),
		Out:        &out,
	})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if verified["phone"] != "9999" || verified["otp"] != "4321" {
		t.Fatalf("verify body = %v", verified)
	}
	if !strings.Contains(out.String(), "Enter the code sent to 9999") || !strings.Contains(out.String(), "Signed in as Asha.") {
		t.Fatalf("output = %q", out.String())
	}
	stored, err := prefs.Load(prefsPath)
	if err != nil || stored.AuthToken != "tok-1" {
		t.Fatalf("stored token = %q (%v)", stored.AuthToken, err)
	}
}

func TestLogin_ReportsBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/rider/auth/verify-otp" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Invalid OTP"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	err := Login(context.Background(), LoginOptions{
		ConfigPath: writeConfig(t, srv.URL),
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
		Phone:      "9999",
		In:         strings.NewReader("1111"),
		Out:        &bytes.Buffer{},
	})
	if err == nil || !strings.Contains(err.Error(), "Invalid OTP") {
		t.Fatalf("Login error = %v, want backend message", err)
	}
}

func TestLogin_RequiresPhone(t *testing.T) {
	if err := Login(context.Background(), LoginOptions{Phone: " "}); err == nil {
		t.Fatal("Login accepted an empty phone")
	}
}

func TestLogout_NotSignedIn(t *testing.T) {
	var out bytes.Buffer
	err := Logout(context.Background(), Options{
		ConfigPath: writeConfig(t, "http://127.0.0.1:1"),
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	}, &out)
	if err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if strings.TrimSpace(out.String()) != "Not signed in." {
		t.Fatalf("output = %q", out.String())
	}
}
