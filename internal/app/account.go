package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rbright/rehearse/internal/cli"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/identity"
	"github.com/rbright/rehearse/internal/kv"
)

func (r Runner) commandAccount(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	store, err := kv.Open(ctx, cfg.Identity)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: open identity store: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	svc := identity.NewService(store, logger)

	var user identity.User
	switch parsed.Command {
	case cli.CommandLogin:
		user, err = svc.Login(ctx, parsed.Email, parsed.Password)
	case cli.CommandSignup:
		user, err = svc.Signup(ctx, parsed.Name, parsed.Email, parsed.Password)
	case cli.CommandLogout:
		if err := svc.Logout(ctx); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, "signed out")
		return 0
	case cli.CommandWhoami:
		user, err = svc.Current(ctx)
		if errors.Is(err, identity.ErrSignedOut) {
			fmt.Fprintln(r.Stdout, "not signed in")
			return 1
		}
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintf(r.Stdout, "%s <%s>\n", user.Name, user.Email)
	return 0
}
