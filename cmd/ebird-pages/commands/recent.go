package commands

import (
	"fmt"
	"log/slog"
	"time"

	"ebird-pages/internal/components/telemetry"
	"ebird-pages/internal/scrapers/ebird"
	"ebird-pages/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const report_recent_saved = "recent.saved"

var (
	recentRegion string
	recentOut    string
	recentIndent int
	recentTable  bool
	recentFetch  bool
	recentDb     string
)

func init() {
	recentCmd.Flags().StringVar(&recentRegion, "region", "", "The code of the region, ex. US-MA.")
	recentCmd.Flags().StringVar(&recentOut, "out", "-", "The file to write the list or table to, - for stdout.")
	recentCmd.Flags().IntVar(&recentIndent, "indent", 0, "Pretty-print the json with this level of indentation.")
	recentCmd.Flags().BoolVar(&recentTable, "table", false, "Print a table instead of json.")
	recentCmd.Flags().BoolVar(&recentFetch, "fetch", false, "Get every listed checklist and save it to the database.")
	recentCmd.Flags().StringVar(&recentDb, "db", "", "The sqlite file or libsql url to save fetched checklists to, needs --fetch.")
	recentCmd.MarkFlagRequired("region")
	rootCmd.AddCommand(recentCmd)
}

func summaryRow(s ebird.ChecklistSummary) table.Row {
	return table.Row{
		s.Identifier,
		s.Date.Format("2006-01-02 15:04"),
		s.Species,
		s.Location,
		s.Subnational2,
		s.Subnational1,
		s.Observer,
	}
}

var recentCmd = &cobra.Command{
	Use:   "recent --region <code> [--out <path>|-] [--indent <n>] [--table] [--fetch --db <dsn>]",
	Short: "Lists the checklists most recently submitted in a region.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if recentDb != "" && !recentFetch {
			return fmt.Errorf("--db is only used with --fetch")
		}

		var checklists *store.Store
		if recentFetch {
			var closeStore func()
			var err error
			checklists, closeStore, err = openStore(ctx, recentDb, app.Tel)
			if err != nil {
				return err
			}
			defer closeStore()
			if checklists == nil {
				return fmt.Errorf("--fetch needs a database, pass --db or set db in the config")
			}
		}

		summaries, err := app.Client.GetRecentChecklists(ctx, recentRegion)
		if err != nil {
			return err
		}

		if recentTable {
			t := newTable()
			t.AppendHeader(table.Row{"Checklist", "Date", "Species", "Location", "County", "Region", "Observer"})
			for _, s := range summaries {
				t.AppendRow(summaryRow(s))
			}
			err = writeTable(cmd.OutOrStdout(), recentOut, t)
		} else {
			err = writeJson(cmd.OutOrStdout(), recentOut, recentIndent, summaries)
		}
		if err != nil {
			return err
		}

		if checklists == nil {
			return nil
		}
		if app.Telemetry.Enabled() {
			telemetry.InstrumentPerfStats(ctx, time.Second*5)
		}

		// one checklist at a time, in the order they were listed
		for i, s := range summaries {
			checklist, err := app.Client.GetChecklist(ctx, s.Identifier)
			if err != nil {
				return err
			}
			err = checklists.Save(ctx, checklist)
			if err != nil {
				return err
			}
			slog.Info("saved checklist", "id", checklist.Identifier, "n", i+1, "of", len(summaries))
		}
		telemetry.NewScopedAPI("recent", app.Tel).ReportCount(report_recent_saved, int64(len(summaries)))
		return nil
	},
}
