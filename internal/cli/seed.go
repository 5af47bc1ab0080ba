package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"salescube/internal/datagen"
	"salescube/internal/logging"
	"salescube/internal/table"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate synthetic input CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		opt := datagen.DefaultOptions()
		opt.Seed, _ = cmd.Flags().GetUint64("seed")
		opt.Customers, _ = cmd.Flags().GetInt("customers")
		opt.Products, _ = cmd.Flags().GetInt("products")
		opt.Sales, _ = cmd.Flags().GetInt("sales")
		opt.DuplicateRate, _ = cmd.Flags().GetFloat64("dup-rate")

		// The generators share one seeded faker, so generation order is part
		// of the determinism contract: always customers, products, sales.
		g := datagen.New(opt)
		for _, out := range []struct {
			name string
			tbl  func() *table.Table
		}{
			{"customers.csv", g.Customers},
			{"products.csv", g.Products},
			{"sales.csv", g.Sales},
		} {
			path := filepath.Join(dir, out.name)
			if err := datagen.WriteCSV(path, out.tbl()); err != nil {
				return err
			}
			logging.Logger.Info().Str("file", path).Msg("seed file written")
		}
		return nil
	},
}

func init() {
	d := datagen.DefaultOptions()
	seedCmd.Flags().String("dir", "data/seed", "output directory")
	seedCmd.Flags().Uint64("seed", d.Seed, "generation seed")
	seedCmd.Flags().Int("customers", d.Customers, "customer rows")
	seedCmd.Flags().Int("products", d.Products, "product rows")
	seedCmd.Flags().Int("sales", d.Sales, "sale rows")
	seedCmd.Flags().Float64("dup-rate", d.DuplicateRate, "fraction of duplicate customer and sale keys")
}
