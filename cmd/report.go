package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jamshid-zayniyev/warehouse-admin/app"
	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/spf13/cobra"
)

var (
	reportDate  string
	reportRange string
	reportToken string
	reportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Supplier request reports",
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the supplier request report of a date or range",
	Long: `Builds the XLSX report for --date or --range (default: yesterday).
With --out the workbook is written to a local file, otherwise it is uploaded
to the configured S3 bucket and a presigned link is printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := resolveScope(reportDate, reportRange, time.Now())
		if err != nil {
			return err
		}

		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		token := reportToken
		if token == "" {
			token = cfg.BackendServiceToken
		}
		if token == "" {
			return fmt.Errorf("a backend token is required: pass --token or set BACKEND_SERVICE_TOKEN")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		if reportOut != "" {
			report, err := application.Reports.Build(ctx, token, scope)
			if err != nil {
				return err
			}
			if err := os.WriteFile(reportOut, report.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d requests to %s\n", report.Count, reportOut)
			return nil
		}

		export, err := application.Reports.Export(ctx, token, scope)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d requests to %s\n%s\n", export.Count, export.Key, export.URL)
		return nil
	},
}

// resolveScope turns the --date/--range flags into a scope; date wins over range
func resolveScope(date, quickRange string, now time.Time) (models.DateScope, error) {
	if date != "" {
		d, err := models.ParseDay(date)
		if err != nil {
			return models.DateScope{}, fmt.Errorf("--date must be formatted as YYYY-MM-DD")
		}
		return models.SingleDay(d), nil
	}
	return models.ResolveQuickRange(models.QuickRange(quickRange), now)
}

func init() {
	reportExportCmd.Flags().StringVar(&reportDate, "date", "", "Report date (YYYY-MM-DD)")
	reportExportCmd.Flags().StringVar(&reportRange, "range", string(models.RangeYesterday), "Quick range: today, yesterday, last7, last30")
	reportExportCmd.Flags().StringVar(&reportToken, "token", "", "Backend bearer token (default BACKEND_SERVICE_TOKEN)")
	reportExportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Write the workbook to this file instead of uploading it")

	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}
