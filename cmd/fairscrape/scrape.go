package main

import (
	"github.com/pevans/fairscrape/crawl"
	"github.com/spf13/cobra"
)

var exhibitorLimit int

func init() {
	exhibitorsCmd.Flags().IntVar(&exhibitorLimit, "limit", 0, "Maximum number of exhibitors to scrape (0 for all pending)")

	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(exhibitorsCmd)
	rootCmd.AddCommand(productsCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links [category-url...]",
	Short: "Collect exhibitor links from category listings into the work queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := categoryArgs(args)
		if err != nil {
			return err
		}

		return withSession(cmd.Context(), func(s *crawl.Session) error {
			report, err := s.RegisterCategories(cmd.Context(), categories)
			printReport("Link registration", report)
			return err
		})
	},
}

var exhibitorsCmd = &cobra.Command{
	Use:   "exhibitors [--limit N]",
	Short: "Scrape pending exhibitor detail pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *crawl.Session) error {
			report, err := s.ScrapeExhibitors(cmd.Context(), exhibitorLimit)
			printReport("Exhibitor scrape", report)
			return err
		})
	},
}

var productsCmd = &cobra.Command{
	Use:   "products [category-url...]",
	Short: "Scrape products from category listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := categoryArgs(args)
		if err != nil {
			return err
		}

		return withSession(cmd.Context(), func(s *crawl.Session) error {
			report, err := s.ScrapeProducts(cmd.Context(), categories)
			printReport("Product scrape", report)
			return err
		})
	},
}
