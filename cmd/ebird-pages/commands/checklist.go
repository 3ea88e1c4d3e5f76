package commands

import (
	"context"
	"fmt"
	"log/slog"

	"ebird-pages/internal/components/telemetry"
	"ebird-pages/internal/store"

	"github.com/spf13/cobra"
)

var (
	checklistId     string
	checklistOut    string
	checklistIndent int
	checklistDb     string
)

func init() {
	checklistCmd.Flags().StringVar(&checklistId, "id", "", "The unique identifier for the checklist.")
	checklistCmd.Flags().StringVar(&checklistOut, "out", "-", "The file to write the checklist to, - for stdout.")
	checklistCmd.Flags().IntVar(&checklistIndent, "indent", 0, "Pretty-print the json with this level of indentation.")
	checklistCmd.Flags().StringVar(&checklistDb, "db", "", "Also save the checklist to this sqlite file or libsql url.")
	checklistCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(checklistCmd)
}

// openStore returns nil when neither the flag nor the config name a database.
func openStore(ctx context.Context, dsn string, tel telemetry.API) (*store.Store, func(), error) {
	if dsn == "" {
		dsn = app.Config.Db
	}
	if dsn == "" {
		return nil, func() {}, nil
	}
	database, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	s := store.NewStore(database, tel)
	return &s, func() { database.Close() }, nil
}

var checklistCmd = &cobra.Command{
	Use:   "checklist --id <identifier> [--out <path>|-] [--indent <n>] [--db <dsn>]",
	Short: "Gets the data for a checklist from its eBird web page.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		checklist, err := app.Client.GetChecklist(ctx, checklistId)
		if err != nil {
			return err
		}

		checklists, closeStore, err := openStore(ctx, checklistDb, app.Tel)
		if err != nil {
			return err
		}
		defer closeStore()
		if checklists != nil {
			err = checklists.Save(ctx, checklist)
			if err != nil {
				return err
			}
			slog.Info("saved checklist", "id", checklist.Identifier)
		}

		return writeJson(cmd.OutOrStdout(), checklistOut, checklistIndent, checklist)
	},
}
