package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/catalog"
	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/internal/store"
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in product catalog into the database",
	Long: `Upsert every product of the embedded seed catalog. Existing products
with the same id are overwritten; other products are left alone.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := store.New(cfg.GetString("database.path"))
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := services.NewSQLiteProductRepository(ctx, db)
	if err != nil {
		return err
	}
	n, err := catalog.Seed(ctx, repo, pkgcatalog.NewCatalog())
	if err != nil {
		return err
	}

	logger.Info("catalog seeded", zap.Int("products", n))
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products\n", n)
	return nil
}
