package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/logging"
	"github.com/five82/courier/internal/state"
)

// LoginOptions configure the non-interactive login command.
type LoginOptions struct {
	ConfigPath string
	PrefsPath  string
	Phone      string
	In         io.Reader
	Out        io.Writer
}

// Login requests an OTP for the phone number, prompts for the code on In and
// stores the resulting session token in prefs.
func Login(ctx context.Context, opts LoginOptions) error {
	if strings.TrimSpace(opts.Phone) == "" {
		return errors.New("phone number is required")
	}
	c, closeFn, err := buildForCommand(opts.ConfigPath, opts.PrefsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := c.Session.RequestCode(ctx, opts.Phone); err != nil {
		return commandError(c.Store, err)
	}
	fmt.Fprintf(opts.Out, "Enter the code sent to %s: ", strings.TrimSpace(opts.Phone))

	line, err := bufio.NewReader(opts.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read code: %w", err)
	}
	if err := c.Session.Login(ctx, opts.Phone, line); err != nil {
		return commandError(c.Store, err)
	}

	name := "rider"
	if profile := c.Store.Snapshot().Rider; profile != nil && profile.Name != "" {
		name = profile.Name
	}
	fmt.Fprintf(opts.Out, "Signed in as %s.\n", name)
	return nil
}

// Logout ends the stored session.
func Logout(ctx context.Context, opts Options, out io.Writer) error {
	c, closeFn, err := buildForCommand(opts.ConfigPath, opts.PrefsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	restored, err := c.Session.Restore(ctx)
	if err != nil {
		return err
	}
	if !restored {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	if err := c.Session.Logout(ctx); err != nil {
		// The local session is gone either way.
		fmt.Fprintf(out, "Signed out locally (%v).\n", err)
		return nil
	}
	fmt.Fprintln(out, "Signed out.")
	return nil
}

func buildForCommand(configPath, prefsPath string) (*Components, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	c, err := Build(cfg, prefsPath, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}
	return c, func() {
		c.Close()
		_ = closeLog()
	}, nil
}

// commandError prefers the toast the failure produced, which carries the
// backend's message.
func commandError(store *state.Store, err error) error {
	if toast := store.Snapshot().Toast; toast != nil && toast.Message != "" {
		return fmt.Errorf("%s: %w", toast.Message, err)
	}
	return err
}
