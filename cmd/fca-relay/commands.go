// =============================================================================
// commands.go - サブコマンド定義
// =============================================================================
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"fca-relay/internal/pipeline"
)

func newRootCmd() *cobra.Command {
	cfg := pipeline.DefaultConfig()

	root := &cobra.Command{
		Use:   "fca-relay",
		Short: "Scrape FCA news and publication pages into CSV and email a summary",
		Long: `fca-relay fetches the FCA news listing (or a set of regulator and
legislation pages), extracts title/date/link for each item using a
declarative matching profile, writes the result to a CSV file and
optionally emails it.

Example usage:
  fca-relay news                     # fca_news.csv + email (if credentials set)
  fca-relay news --no-email --print  # scrape only and show the records
  fca-relay updates                  # fca_updates.csv from the default sources
  fca-relay notify --table fca_news.csv
  fca-relay rules                    # list matching profiles`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return pipeline.ConfigureLogging(cfg.Log.Level, cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Log.Level, "log-level", envOr("LOG_LEVEL", cfg.Log.Level), "log level: debug|info|warn|error")
	flags.StringVar(&cfg.Input.RulesFile, "rules", "", "optional: YAML file with matching profiles (replaces the bundled set)")
	flags.StringVar(&cfg.Input.UserAgent, "user-agent", cfg.Input.UserAgent, "User-Agent header (empty: HTTP library default)")
	flags.IntVar(&cfg.Input.Limit, "limit", 0, "max records per source (0: unlimited)")

	root.AddCommand(
		newNewsCmd(cfg),
		newUpdatesCmd(cfg),
		newNotifyCmd(cfg),
		newRulesCmd(cfg),
	)
	return root
}

// =============================================================================
// news
// =============================================================================

func newNewsCmd(cfg *pipeline.PipelineConfig) *cobra.Command {
	var noEmail bool

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Scrape the FCA news listing into fca_news.csv and email it",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg.Email.Send = !noEmail
			cfg.Email.Notifier = pipeline.NotifierConfigFromEnv(os.Getenv)

			runner, _, err := pipeline.NewRunnerFromConfig(cfg)
			if err != nil {
				return err
			}

			src := pipeline.Source{URL: cfg.Input.URL, Profile: cfg.Input.Profile}
			res, err := runner.RunNews(cmd.Context(), src, cfg.Output.PathFor(pipeline.LayoutNews))
			if errors.Is(err, pipeline.ErrUnknownProfile) {
				return err
			}
			if err != nil {
				fmt.Fprintf(out, "Failed to retrieve page: %v\n", err)
				return nil
			}

			printStatus(out, res)
			return printRecords(out, cfg, res)
		},
	}

	cmd.Flags().StringVar(&cfg.Input.URL, "url", cfg.Input.URL, "news listing URL")
	cmd.Flags().StringVar(&cfg.Input.Profile, "profile", cfg.Input.Profile, "matching profile for the listing")
	cmd.Flags().StringVarP(&cfg.Output.Path, "out", "o", "", "output CSV path (default: fca_news.csv)")
	cmd.Flags().BoolVar(&noEmail, "no-email", false, "do not send the email summary")
	cmd.Flags().BoolVar(&cfg.Output.Print, "print", false, "print the extracted records as a table")
	return cmd
}

// =============================================================================
// updates
// =============================================================================

func newUpdatesCmd(cfg *pipeline.PipelineConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Scrape regulator and legislation pages into fca_updates.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg.Email.Send = false

			sources := pipeline.DefaultUpdateSources
			if cfg.Input.SourcesFile != "" {
				loaded, err := pipeline.LoadSources(cfg.Input.SourcesFile)
				if err != nil {
					return err
				}
				sources = loaded
			}

			runner, _, err := pipeline.NewRunnerFromConfig(cfg)
			if err != nil {
				return err
			}

			res, err := runner.RunUpdates(cmd.Context(), sources, cfg.Output.PathFor(pipeline.LayoutUpdates))
			if err != nil {
				fmt.Fprintf(out, "Failed to write table: %v\n", err)
				return nil
			}

			printStatus(out, res)
			if cfg.Output.Print {
				if err := pipeline.PrintReports(out, res.Collect.Reports); err != nil {
					return err
				}
			}
			return printRecords(out, cfg, res)
		},
	}

	cmd.Flags().StringVar(&cfg.Input.SourcesFile, "sources", "", "optional: YAML file listing sources (url, profile)")
	cmd.Flags().StringVarP(&cfg.Output.Path, "out", "o", "", "output CSV path (default: fca_updates.csv)")
	cmd.Flags().BoolVar(&cfg.Output.Print, "print", false, "print per-source results and records as tables")
	return cmd
}

// =============================================================================
// notify
// =============================================================================

func newNotifyCmd(cfg *pipeline.PipelineConfig) *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Email an existing CSV table without scraping",
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier := pipeline.NewNotifier(pipeline.NotifierConfigFromEnv(os.Getenv))
			res := notifier.NotifyFromTable(cmd.Context(), table)
			printStatus(cmd.OutOrStdout(), &pipeline.RunResult{Notify: &res})
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", pipeline.LayoutNews.DefaultFile(), "CSV table to send")
	return cmd
}

// =============================================================================
// rules
// =============================================================================

func newRulesCmd(cfg *pipeline.PipelineConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the loaded matching profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := pipeline.LoadRules(cfg.Input.RulesFile)
			if err != nil {
				return err
			}
			return pipeline.PrintRules(cmd.OutOrStdout(), rules)
		},
	}
}

// =============================================================================
// ヘルパー
// =============================================================================

func printStatus(w io.Writer, res *pipeline.RunResult) {
	for _, line := range res.StatusLines() {
		fmt.Fprintln(w, line)
	}
}

func printRecords(w io.Writer, cfg *pipeline.PipelineConfig, res *pipeline.RunResult) error {
	if !cfg.Output.Print || res.Collect == nil {
		return nil
	}
	return pipeline.PrintRecords(w, res.Layout, res.Collect.Records)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
