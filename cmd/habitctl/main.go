// habitctl is a terminal client for the habit grid API.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"habitgrid/internal/apiclient"
	"habitgrid/internal/calendar"
	"habitgrid/internal/grid"
	pkgconfig "habitgrid/pkg/config"
)

type options struct {
	url  string
	user string
	pass string
	page int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "habitctl",
		Short:        "Show and mark the four-week habit grid",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.url, "url", pkgconfig.GetEnv("HABITGRID_URL", "http://localhost:8080"), "server base URL")
	root.PersistentFlags().StringVar(&opts.user, "user", os.Getenv("BASIC_AUTH_USER"), "basic auth user")
	root.PersistentFlags().StringVar(&opts.pass, "pass", os.Getenv("BASIC_AUTH_PASS"), "basic auth password")
	root.PersistentFlags().IntVar(&opts.page, "page", 0, "window offset from the current one (-1 is the previous four weeks)")

	root.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the grid",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				b, err := opts.board(cmd.Context())
				if err != nil {
					return err
				}
				grid.Render(color.Output, b)
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle HABIT_KEY DATE",
			Short: "Advance a daily cell: unmarked, ok, partial, no",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				date, err := calendar.ParseDate(args[1])
				if err != nil {
					return err
				}
				b, err := opts.board(cmd.Context())
				if err != nil {
					return err
				}
				h, ok := b.HabitByKey(args[0])
				if !ok {
					return fmt.Errorf("unknown habit %q", args[0])
				}
				st, err := b.Toggle(cmd.Context(), h.ID, date)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(color.Output, "%s %s %s\n", h.HabitKey, args[1], grid.Glyph(st))
				return nil
			},
		},
		&cobra.Command{
			Use:   "week HABIT_KEY WEEK",
			Short: "Flip a weekly habit for week 1-4 of the window",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				week, err := strconv.Atoi(args[1])
				if err != nil || week < 1 || week > calendar.WeeksPerWindow {
					return fmt.Errorf("week must be 1-%d", calendar.WeeksPerWindow)
				}
				b, err := opts.board(cmd.Context())
				if err != nil {
					return err
				}
				h, ok := b.HabitByKey(args[0])
				if !ok {
					return fmt.Errorf("unknown habit %q", args[0])
				}
				st, err := b.ToggleWeek(cmd.Context(), h.ID, week-1)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(color.Output, "%s w%d %s\n", h.HabitKey, week, grid.Glyph(st))
				return nil
			},
		},
	)
	return root
}

// board loads the window selected by --page.
func (o *options) board(ctx context.Context) (*grid.Board, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var clientOpts []apiclient.Option
	if o.user != "" {
		clientOpts = append(clientOpts, apiclient.WithBasicAuth(o.user, o.pass))
	}
	b := grid.NewBoard(apiclient.New(o.url, clientOpts...), time.Now)

	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	step := b.Next
	n := o.page
	if n < 0 {
		step, n = b.Prev, -n
	}
	for i := 0; i < n; i++ {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}
