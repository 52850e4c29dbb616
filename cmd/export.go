package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/koshin/internal/model"
	"github.com/theirongolddev/koshin/internal/pipeline"
	"github.com/theirongolddev/koshin/internal/tui"
)

var (
	flagExportFormat string
	flagExportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export contracts as json, yaml or csv",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportFormat, "format", "f", "json", "Output format: json, yaml, csv")
	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	list := pipeline.SortByRenewalDate(rt.manager.Contracts(), true)

	if flagExportOutput == "" {
		return writeExport(os.Stdout, flagExportFormat, list)
	}
	if err := exportToFile(flagExportOutput, flagExportFormat, list); err != nil {
		return err
	}
	progress("  %d件を%sに書き出しました\n", len(list), flagExportOutput)
	return nil
}

// exportToFile writes list to path. A failed close is reported, since it can
// mean the data never reached the disk.
func exportToFile(path, format string, list []model.Contract) error {
	f, err := os.Create(path) //nolint:gosec // output path is chosen by the local user
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	if err := writeExport(f, format, list); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"id", "name", "category", "billingCycle", "amount", "renewalDate",
	"reminderDays", "notes", "annualCost", "createdAt", "updatedAt",
}

// writeExport encodes list in format. An empty list encodes as an empty
// collection, never null.
func writeExport(w io.Writer, format string, list []model.Contract) error {
	if list == nil {
		list = []model.Contract{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
		for _, c := range list {
			if err := cw.Write([]string{
				c.ID,
				c.Name,
				string(c.Category),
				string(c.BillingCycle),
				strconv.FormatInt(c.Amount, 10),
				c.RenewalDate.Format(tui.DateLayout),
				strconv.Itoa(c.ReminderDays),
				c.Notes,
				strconv.FormatInt(pipeline.AnnualCost(c), 10),
				c.CreatedAt.Format(time.RFC3339),
				c.UpdatedAt.Format(time.RFC3339),
			}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		return fmt.Errorf("unknown export format %q (want json, yaml or csv)", format)
	}
}
