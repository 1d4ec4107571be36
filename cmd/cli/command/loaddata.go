package command

import (
	"fmt"

	"yamdb/database"
	"yamdb/internal/ingestion"

	"github.com/spf13/cobra"
)

var (
	dataDir     string
	loadWorkers int
)

var loadDataCmd = &cobra.Command{
	Use:   "loaddata",
	Short: "Import the CSV fixture set",
	Long: `Import users.csv, category.csv, genre.csv, titles.csv, genre_title.csv,
review.csv and comments.csv from --dir. Rows that already exist are skipped,
so the command can be re-run. Missing files are skipped with a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		report, err := ingestion.NewLoader(db, loadWorkers).Load(cmd.Context(), dataDir)
		if err != nil {
			return fmt.Errorf("failed to load fixtures: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, name := range ingestion.Files {
			if n, ok := report[name]; ok {
				fmt.Fprintf(out, "%-16s %d rows\n", name, n)
			}
		}
		fmt.Fprintln(out, "Fixtures loaded.")
		return nil
	},
}

func init() {
	loadDataCmd.Flags().StringVar(&dataDir, "dir", "static/data", "directory holding the CSV files")
	loadDataCmd.Flags().IntVar(&loadWorkers, "workers", 4, "files parsed in parallel")
	rootCmd.AddCommand(loadDataCmd)
}
