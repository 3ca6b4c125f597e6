package commands

import (
	"fmt"
	"time"

	"github.com/penwyp/go-tflog-viewer/internal/core/model"
	"github.com/penwyp/go-tflog-viewer/internal/data/store"
	"github.com/penwyp/go-tflog-viewer/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	searchOutput   string
	searchQuery    string
	searchLevel    string
	searchReqID    string
	searchResource string
	searchSection  string
	searchFrom     string
	searchTo       string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search [path]",
	Short: "Print matching log records",
	Long: `Loads the logs under path and prints the records that match the filters,
ordered by timestamp.

Examples:
  go-tflog-viewer search ./logs --level error
  go-tflog-viewer search apply.jsonl -q forbidden -o json
  go-tflog-viewer search ./logs --req-id 7c1d -o summary`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", formatter.FormatTable,
		"Output format (table, json, csv, summary)")
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "",
		"Case-insensitive text filter")
	searchCmd.Flags().StringVar(&searchLevel, "level", "",
		"Only records of this level (error, warning, info, debug, other)")
	searchCmd.Flags().StringVar(&searchReqID, "req-id", "",
		"Only records with this tf_req_id")
	searchCmd.Flags().StringVar(&searchResource, "resource", "",
		"Only records whose tf_resource contains this text")
	searchCmd.Flags().StringVar(&searchSection, "section", "",
		"Only records of this section (plan, apply)")
	searchCmd.Flags().StringVar(&searchFrom, "from", "",
		"Earliest timestamp (RFC3339 or 2006-01-02 15:04:05)")
	searchCmd.Flags().StringVar(&searchTo, "to", "",
		"Latest timestamp")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0,
		"Maximum records (0 = config search_limit)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	f, err := formatter.New(searchOutput)
	if err != nil {
		return err
	}

	path := cfg.Data.Path
	if len(args) == 1 {
		path = args[0]
	}

	query := store.Query{
		Q:        searchQuery,
		Level:    searchLevel,
		ReqID:    searchReqID,
		Resource: searchResource,
		Section:  searchSection,
		Limit:    cfg.Data.SearchLimit,
	}
	if searchLimit > 0 {
		query.Limit = searchLimit
	}
	if query.TSFrom, err = parseBound("from", searchFrom); err != nil {
		return err
	}
	if query.TSTo, err = parseBound("to", searchTo); err != nil {
		return err
	}

	st := store.NewMemoryStore()
	if _, err := preload(st, expandPath(path), cfg.Data.Concurrency); err != nil {
		return err
	}

	return f.Format(cmd.OutOrStdout(), st.Search(query))
}

// parseBound returns nil for an empty value
func parseBound(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, ok := model.ParseTimestamp(value)
	if !ok {
		return nil, fmt.Errorf("invalid --%s timestamp %q", name, value)
	}
	return &ts, nil
}
