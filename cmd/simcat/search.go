package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/types"
	"github.com/okian/simcat/pkg/logger"
	"github.com/spf13/cobra"
)

var searchFlags struct {
	topics       []string
	roles        []string
	weeks        []string
	types        []string
	difficulties []string
	policy       string
	limit        int
	json         bool
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank the catalog once and print the result",
	Long: "search loads the configured catalog, ranks it for the given selection\n" +
		"and prints the result. Omitting --type or --difficulty allows every value.",
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringSliceVar(&searchFlags.topics, "topic", nil, "Topic to match (repeatable or comma separated)")
	f.StringSliceVar(&searchFlags.roles, "role", nil, "Role to match")
	f.StringSliceVar(&searchFlags.weeks, "week", nil, "Week to match")
	f.StringSliceVar(&searchFlags.types, "type", nil, "Allowed simulation types (default: all)")
	f.StringSliceVar(&searchFlags.difficulties, "difficulty", nil, "Allowed difficulties (default: all)")
	f.StringVar(&searchFlags.policy, "policy", "", "Scoring policy: tiered or flat (default from config)")
	f.IntVar(&searchFlags.limit, "limit", 0, "Print at most this many results (0 = all)")
	f.BoolVar(&searchFlags.json, "json", false, "Print JSON instead of a table")
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.RefreshIntervalMS = 0

	svc, err := newService(cfg, logger.Get())
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	defer svc.Stop()

	ranked, err := svc.SearchCatalog(ctx, searchFlags.policy, func(def model.Criteria) model.Criteria {
		return searchCriteria(cmd, def)
	})
	if err != nil {
		return err
	}

	results := ranked.Results
	out := types.SearchResult{
		Policy:         ranked.Policy,
		CatalogVersion: ranked.CatalogVersion,
		Total:          len(results),
		Results:        []types.Entry{},
	}
	if searchFlags.limit > 0 && searchFlags.limit < len(results) {
		results = results[:searchFlags.limit]
	}
	out.Count = len(results)
	for i, s := range results {
		out.Results = append(out.Results, types.Entry{Rank: i + 1, Simulation: source.EncodeSimulation(s)})
	}

	if searchFlags.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return printTable(cmd.OutOrStdout(), out, results)
}

// searchCriteria builds the selection from flags on top of the catalog
// defaults, so type and difficulty allow every value unless named.
func searchCriteria(cmd *cobra.Command, def model.Criteria) model.Criteria {
	c := def.WithTopics(searchFlags.topics...).
		WithRoles(searchFlags.roles...).
		WithWeeks(searchFlags.weeks...)
	if cmd.Flags().Changed("type") {
		c = c.WithTypes(searchFlags.types...)
	}
	if cmd.Flags().Changed("difficulty") {
		c = c.WithDifficulties(searchFlags.difficulties...)
	}
	return c
}

func printTable(w io.Writer, out types.SearchResult, results []model.Simulation) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No simulations match.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tID\tTitle\tType\tDifficulty\tTopic\n")
	fmt.Fprintf(tw, "-\t--\t-----\t----\t----------\t-----\n")
	for i, s := range results {
		title := s.Title
		if strings.TrimSpace(title) == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, s.ID, title, s.Type, s.Difficulty, s.PrimaryTopic)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d shown · policy %s · catalog v%d\n", out.Count, out.Total, out.Policy, out.CatalogVersion)
	return err
}
