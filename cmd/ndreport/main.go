package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ndreport/internal"
	"ndreport/internal/config"
	"ndreport/internal/logging"
	"ndreport/internal/names"
	"ndreport/internal/pipeline"
	"ndreport/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Validate())

	log, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	must(err)
	defer func() { _ = log.Sync() }()

	if err := newRootCmd(cfg, log).Execute(); err != nil {
		_ = log.Sync()
		must(err)
	}
}

// newRootCmd leaves error reporting to the caller so a failure prints once.
func newRootCmd(cfg config.Config, log *zap.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ndreport",
		Short:         "Not-disclosed account report",
		Long:          `Finds vendor accounts missing from the customer roster and matches them back to customers by name`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(createRunCmd(cfg, log))
	rootCmd.AddCommand(createRunsCmd(cfg))
	rootCmd.AddCommand(createStopWordsCmd(cfg))
	return rootCmd
}

func createRunCmd(cfg config.Config, log *zap.Logger) *cobra.Command {
	var server, company, out string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the matched/unmatched report for one server and company",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := internal.ParseServer(server)
			if err != nil {
				return err
			}
			company = strings.TrimSpace(company)
			if company == "" {
				return fmt.Errorf("--company is required")
			}

			stopWords, err := names.LoadStopWords(cfg.StopWordsPath)
			if err != nil {
				return err
			}

			var ledger pipeline.RunLedger
			if cfg.RunLedgerEnabled {
				db, err := storage.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
				ledger = db
			}

			svc := pipeline.NewReportService(cfg, stopWords, ledger, log)
			res, err := svc.Run(pipeline.RunRequest{Server: srv, Company: company, OutputPath: out})
			if err != nil {
				return err
			}
			fmt.Printf("report written %s orphans=%d matched=%d unmatched=%d\n",
				res.ReportPath, res.Counts.Orphans, res.Counts.Matched, res.Counts.Unmatched)
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", internal.ServerChoices())
	cmd.Flags().StringVar(&company, "company", "", "company ID")
	cmd.Flags().StringVar(&out, "out", "", "output xlsx path (default REPORTS_DIR/report_<SERVER>_<ID>_<time>.xlsx)")
	_ = cmd.MarkFlagRequired("server")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func createRunsCmd(cfg config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent report runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("%d %s %s/%s orphans=%d matched=%d unmatched=%d %s\n",
					r.ID, r.CreatedAt, r.Server, r.Company,
					r.Counts.Orphans, r.Counts.Matched, r.Counts.Unmatched, r.ReportPath)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	return cmd
}

func createStopWordsCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stopwords",
		Short: "Show the loaded stop words",
		RunE: func(cmd *cobra.Command, args []string) error {
			sw, err := names.LoadStopWords(cfg.StopWordsPath)
			if err != nil {
				return err
			}
			words := sw.Words()
			fmt.Printf("%d stop words from %s\n", sw.Len(), cfg.StopWordsPath)
			if len(words) > 10 {
				words = words[:10]
			}
			fmt.Println(strings.Join(words, ", "))
			return nil
		},
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
