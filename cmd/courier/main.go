package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/courier/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("courier", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (optional, defaults to ~/.config/courier/config.toml)")
	prefsPath := fs.String("prefs", "", "preferences file path (optional)")
	poll := fs.Duration("poll", 0, "order refresh interval (optional, defaults to 15s)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: courier [flags] [login -phone NUMBER | logout]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{ConfigPath: *configPath, PrefsPath: *prefsPath, PollEvery: *poll}

	var err error
	switch cmd := fs.Arg(0); cmd {
	case "":
		err = app.Run(ctx, opts)
	case "login":
		err = login(ctx, opts, fs.Args()[1:])
	case "logout":
		err = app.Logout(ctx, opts, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "courier: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "courier: %v\n", err)
		return 1
	}
	return 0
}

func login(ctx context.Context, opts app.Options, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	phone := fs.String("phone", "", "registered phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return app.Login(ctx, app.LoginOptions{
		ConfigPath: opts.ConfigPath,
		PrefsPath:  opts.PrefsPath,
		Phone:      *phone,
		In:         os.Stdin,
		Out:        os.Stdout,
	})
}
