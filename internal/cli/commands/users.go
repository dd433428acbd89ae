package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"BookmarkAdmin/internal/cli/app"
	"BookmarkAdmin/internal/cli/model"
)

type usersCmd struct{}

func (usersCmd) Name() string        { return "users" }
func (usersCmd) Description() string { return "List users, newest first" }
func (usersCmd) Usage() string       { return "users" }

func (usersCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	users, err := a.API.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(Out, "No users")
		return nil
	}
	rows := [][]string{{"ID", "Email", "Status", "Admin", "Bookmarks", "Last sync", "Created"}}
	for _, u := range users {
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10), u.Email, u.Status, yesNo(u.IsAdmin),
			strconv.Itoa(u.BookmarkCount), orDash(u.LastSyncAt), u.CreatedAt,
		})
	}
	return printTable(rows)
}

type userCmd struct{}

func (userCmd) Name() string        { return "user" }
func (userCmd) Description() string { return "Show a user with recent bookmarks and syncs" }
func (userCmd) Usage() string       { return "user <id>" }

func (userCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	u, err := a.API.GetUser(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "ID: %d\nEmail: %s\nStatus: %s\nAdmin: %s\nBookmarks: %d\nSyncs: %d\nLast sync: %s\nCreated: %s\n",
		u.ID, u.Email, u.Status, yesNo(u.IsAdmin), u.BookmarkCount, u.SyncCount, orDash(u.LastSyncAt), u.CreatedAt)
	if len(u.Bookmarks) > 0 {
		rows := [][]string{{"ID", "Title", "URL", "Folder"}}
		for _, b := range u.Bookmarks {
			rows = append(rows, []string{strconv.FormatInt(b.ID, 10), b.Title, b.URL, b.FolderPath})
		}
		if err := printTable(rows); err != nil {
			return err
		}
	}
	if len(u.RecentSyncs) > 0 {
		rows := [][]string{{"ID", "Action", "Added", "Updated", "Deleted", "At"}}
		for _, s := range u.RecentSyncs {
			rows = append(rows, []string{strconv.FormatInt(s.ID, 10), s.Action,
				strconv.Itoa(s.Added), strconv.Itoa(s.Updated), strconv.Itoa(s.Deleted), s.CreatedAt})
		}
		return printTable(rows)
	}
	return nil
}

type userUpdateCmd struct{}

func (userUpdateCmd) Name() string { return "user-update" }
func (userUpdateCmd) Description() string {
	return "Enable/disable a user or change the admin flag"
}
func (userUpdateCmd) Usage() string {
	return "user-update <id> [--status active|disabled] [--admin true|false]"
}

func (userUpdateCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("user-update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	status := fs.String("status", "", "")
	admin := fs.String("admin", "", "")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 0 {
		return ErrUsage
	}

	var req model.UpdateUserRequest
	if *status != "" {
		if !model.ValidStatus(*status) {
			return fmt.Errorf("invalid status %q (allowed: %s, %s)", *status, model.StatusActive, model.StatusDisabled)
		}
		req.Status = status
	}
	if *admin != "" {
		v, err := strconv.ParseBool(*admin)
		if err != nil {
			return fmt.Errorf("invalid --admin value %q", *admin)
		}
		req.IsAdmin = &v
	}
	if req.Status == nil && req.IsAdmin == nil {
		return ErrUsage
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	if err := a.API.UpdateUser(ctx, id, req); err != nil {
		return err
	}
	fmt.Fprintf(Out, "User %d updated\n", id)
	return nil
}

type userDeleteCmd struct{}

func (userDeleteCmd) Name() string        { return "user-delete" }
func (userDeleteCmd) Description() string { return "Delete a user and their data" }
func (userDeleteCmd) Usage() string       { return "user-delete <id>" }

func (userDeleteCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	if err := a.API.DeleteUser(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(Out, "User %d deleted\n", id)
	return nil
}

func init() {
	RegisterCmd(usersCmd{})
	RegisterCmd(userCmd{})
	RegisterCmd(userUpdateCmd{})
	RegisterCmd(userDeleteCmd{})
}
