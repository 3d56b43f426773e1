package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pevans/fairscrape/exhibitors"
	"github.com/pevans/fairscrape/export"
	"github.com/pevans/fairscrape/products"
	"github.com/pevans/fairscrape/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var outputPath string

func init() {
	exportCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file, or - for stdout (default from config)")

	exportCmd.AddCommand(exportExhibitorsCmd)
	exportCmd.AddCommand(exportProductsCmd)
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored rows to CSV",
}

var exportExhibitorsCmd = &cobra.Command{
	Use:   "exhibitors",
	Short: "Export completed exhibitors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeExport(cmd.Context(), "exhibitors", func(ctx context.Context, w io.Writer, db *storage.DB) (int, error) {
			return export.WriteExhibitors(ctx, w, exhibitors.NewExhibitorStore(db))
		})
	},
}

var exportProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Export products in the shop import layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeExport(cmd.Context(), "products", func(ctx context.Context, w io.Writer, db *storage.DB) (int, error) {
			return export.WriteMarketplace(ctx, w, products.NewProductStore(db), cfg.Profile.Marketplace)
		})
	},
}

func writeExport(
	ctx context.Context,
	what string,
	write func(context.Context, io.Writer, *storage.DB) (int, error),
) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	path := outputPath
	if path == "" {
		path = cfg.Output
	}

	if path == "-" {
		n, err := write(ctx, os.Stdout, db)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", what, err)
		}
		logger.Info("export finished", zap.String("kind", what), zap.Int("rows", n), zap.String("output", path))
		return nil
	}

	n, err := exportFile(ctx, path, db, write)
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", what, err)
	}

	logger.Info("export finished", zap.String("kind", what), zap.Int("rows", n), zap.String("output", path))
	fmt.Printf("✓ Exported %d %s to %s\n", n, what, path)
	return nil
}

// exportFile writes to a new file at path. The file is only reported written
// once it has been closed without error.
func exportFile(
	ctx context.Context,
	path string,
	db *storage.DB,
	write func(context.Context, io.Writer, *storage.DB) (int, error),
) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	n, err := write(ctx, f, db)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close output file: %w", err)
	}

	return n, nil
}
