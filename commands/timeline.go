package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/application/viewer"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/spf13/cobra"
)

var (
	// Mode flags
	timelineInteractive bool
	timelineWatch       bool
	timelineRefresh     time.Duration

	// Filter flags
	timelineQuery    string
	timelineLevel    string
	timelineReqID    string
	timelineResource string
	timelineSection  string
	timelineLimit    int
)

var timelineCmd = &cobra.Command{
	Use:   "timeline [path]",
	Short: "Draw Terraform requests on a shared time axis",
	Long: `Groups log records by tf_req_id and draws one row per request. Each bar
is placed by its timestamp on an axis shared by all rows and coloured by level;
read records are dimmed. The newest --limit records are laid out.

Without --interactive the chart is printed once. Interactive keys:
  + / -   zoom in / out      0  reset zoom
  e / c   expand / collapse  m  mark shown read
  u       unread only        r  reload
  h       help               q  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	// Display flags
	timelineCmd.Flags().Float64("scale", 0,
		"Initial zoom scale (bar width = 3px x scale)")
	timelineCmd.Flags().Int("width", 0,
		"Chart width in columns (0 = terminal width)")

	// Mode flags
	timelineCmd.Flags().BoolVarP(&timelineInteractive, "interactive", "i", false,
		"Interactive view with keyboard zoom")
	timelineCmd.Flags().BoolVarP(&timelineWatch, "watch", "w", false,
		"Reload when log files change (interactive only)")
	timelineCmd.Flags().DurationVar(&timelineRefresh, "refresh", 0,
		"Periodic reload interval, e.g. 10s (interactive only)")

	// Filter flags
	timelineCmd.Flags().StringVarP(&timelineQuery, "query", "q", "",
		"Case-insensitive text filter")
	timelineCmd.Flags().StringVar(&timelineLevel, "level", "",
		"Only records of this level (error, warning, info, debug, other)")
	timelineCmd.Flags().StringVar(&timelineReqID, "req-id", "",
		"Only records with this tf_req_id")
	timelineCmd.Flags().StringVar(&timelineResource, "resource", "",
		"Only records whose tf_resource contains this text")
	timelineCmd.Flags().StringVar(&timelineSection, "section", "",
		"Only records of this section (plan, apply)")
	timelineCmd.Flags().IntVar(&timelineLimit, "limit", 0,
		"Maximum records on the chart, newest first (0 = 1000)")

	_ = v.BindPFlag("timeline.scale", timelineCmd.Flags().Lookup("scale"))
	_ = v.BindPFlag("timeline.width", timelineCmd.Flags().Lookup("width"))
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	path := cfg.Data.Path
	if len(args) == 1 {
		path = args[0]
	}

	viewCfg := &viewer.Config{
		Path:  expandPath(path),
		Width: cfg.Timeline.Width,
		Zoom:  cfg.Zoom(),
		Query: store.Query{
			Q:        timelineQuery,
			Level:    timelineLevel,
			ReqID:    timelineReqID,
			Resource: timelineResource,
			Section:  timelineSection,
			Limit:    timelineLimit,
		},
		Watch:           timelineWatch,
		RefreshInterval: timelineRefresh,
		Concurrency:     cfg.Data.Concurrency,
	}

	o, err := viewer.NewOrchestrator(viewCfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if timelineInteractive {
		return o.Run(ctx)
	}

	out, err := o.RenderOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	if o.Truncated() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Showing the newest %d records; use --limit to include older ones\n", viewCfg.Query.Limit)
	}
	return nil
}
