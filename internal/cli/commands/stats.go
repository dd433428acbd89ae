package commands

import (
	"context"
	"strconv"

	"BookmarkAdmin/internal/cli/app"
)

type statsCmd struct{}

func (statsCmd) Name() string        { return "stats" }
func (statsCmd) Description() string { return "Show service statistics" }
func (statsCmd) Usage() string       { return "stats" }

func (statsCmd) Run(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := requireLogin(a); err != nil {
		return err
	}
	st, err := a.API.Stats(ctx)
	if err != nil {
		return err
	}
	return printTable([][]string{
		{"Metric", "Value"},
		{"Total users", strconv.Itoa(st.TotalUsers)},
		{"Active users", strconv.Itoa(st.ActiveUsers)},
		{"Disabled users", strconv.Itoa(st.DisabledUsers)},
		{"Bookmarks", strconv.Itoa(st.TotalBookmarks)},
		{"Syncs", strconv.Itoa(st.TotalSyncs)},
		{"Syncs today", strconv.Itoa(st.TodaySyncs)},
	})
}

func init() { RegisterCmd(statsCmd{}) }
