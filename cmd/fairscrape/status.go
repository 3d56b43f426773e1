package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pevans/fairscrape/exhibitors"
	"github.com/pevans/fairscrape/products"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show work queue progress per category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := exhibitors.NewExhibitorStore(db).CountByCategory(cmd.Context())
		if err != nil {
			return err
		}
		productCount, err := products.NewProductStore(db).Count(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Profile: %s\n", cfg.Profile.Name)
		fmt.Printf("Database: %s (%s)\n\n", cfg.Storage.DSN, cfg.Storage.Driver)

		if len(counts) == 0 {
			fmt.Println("No exhibitors registered.")
		} else {
			printCounts(counts)
		}
		fmt.Printf("\nProducts stored: %d\n", productCount)
		return nil
	},
}

// printCounts prints the per-category queue as a table with a totals footer.
func printCounts(counts []exhibitors.Counts) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Category", "Pending", "Done"})

	pending, done := 0, 0
	for _, c := range counts {
		t.AppendRow(table.Row{c.Category, c.Pending, c.Done})
		pending += c.Pending
		done += c.Done
	}

	t.AppendFooter(table.Row{"Total", pending, done})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
