package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"BookmarkAdmin/internal/cli/api"
	"BookmarkAdmin/internal/cli/app"
	"BookmarkAdmin/internal/cli/session"
)

// In is where prompts read from.
var In io.Reader = os.Stdin

// readPassword prompts without echo on a terminal and falls back to a plain
// line read when stdin is piped.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(Out, prompt)
	if f, ok := In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(Out)
		return string(b), err
	}
	line, err := bufio.NewReader(In).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store the session token" }
func (loginCmd) Usage() string       { return "login <email> [password]" }

func (loginCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	email := args[0]
	var password string
	if len(args) == 2 {
		password = args[1]
	} else {
		p, err := readPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = p
	}

	resp, err := a.Session.Login(ctx, email, password)
	switch {
	case errors.Is(err, session.ErrNotPersisted):
		fmt.Fprintf(Out, "Logged in as %s (session will not be remembered: %v)\n", resp.Email, err)
		return nil
	case errors.Is(err, api.ErrUnauthorized):
		return errors.New("invalid email or password")
	case errors.Is(err, api.ErrForbidden):
		return errors.New("admin rights required")
	case err != nil:
		return err
	}
	fmt.Fprintf(Out, "Logged in as %s\n", resp.Email)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the stored session" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	a.Session.Logout(ctx)
	fmt.Fprintln(Out, "Logged out")
	return nil
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
}
