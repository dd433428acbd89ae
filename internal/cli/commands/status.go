package commands

import (
	"context"
	"fmt"
	"time"

	"BookmarkAdmin/internal/cli/app"
	"BookmarkAdmin/internal/cli/auth"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show the current session; --check asks the server" }
func (statusCmd) Usage() string       { return "status [--check]" }

func (statusCmd) Run(ctx context.Context, a *app.App, args []string) error {
	check := false
	switch {
	case len(args) == 0:
	case len(args) == 1 && args[0] == "--check":
		check = true
	default:
		return ErrUsage
	}

	if !a.Session.IsLoggedIn() {
		fmt.Fprintln(Out, "Status: not logged in")
		return nil
	}
	fmt.Fprintf(Out, "Status: logged in as %s\n", a.Session.Email())
	if c, err := auth.ParseClaims(a.Session.Token()); err == nil {
		fmt.Fprintf(Out, "User ID: %d\nAdmin: %t\n", c.UserID(), c.IsAdmin)
		if exp, ok := c.Expiry(); ok {
			note := ""
			if c.Expired(time.Now()) {
				note = " (expired)"
			}
			fmt.Fprintf(Out, "Expires: %s%s\n", exp.Local().Format(time.RFC3339), note)
		}
	}
	if !check {
		return nil
	}
	// any authenticated call will do; a 401 clears the session on the way back
	if _, err := a.API.Stats(ctx); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Server: token accepted")
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
