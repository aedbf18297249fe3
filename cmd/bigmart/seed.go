package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
	"github.com/mimir-aip/bigmart-predictor/pkg/seed"
)

var seedDir string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "load the BigMart XML exports into the database",
	Long: `Create the database (MySQL only) and the item, outlet and sales tables,
then insert every row of df_item.xml, df_outlet.xml and df_sales.xml.

Column types are inferred from the data. Rows are appended, so seeding twice
duplicates them.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedDir, "dir", "d", ".", "directory holding the XML exports")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tables, err := seed.ReadExports(seedDir)
	if err != nil {
		return err
	}

	if err := seed.CreateDatabase(ctx, cfg.Database); err != nil {
		return err
	}
	seeder, err := seed.NewSeeder(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer seeder.Close()

	if err := seeder.SeedTables(ctx, cfg.Tables, tables); err != nil {
		return err
	}

	logging.GetLogger().Info("database seeded",
		logging.String("driver", cfg.Database.Driver),
		logging.Int("items", tables.Item.NRows()),
		logging.Int("outlets", tables.Outlet.NRows()),
		logging.Int("sales", tables.Sales.NRows()),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s, %s and %s.\n", cfg.Tables.Item, cfg.Tables.Outlet, cfg.Tables.Sales)
	return nil
}
