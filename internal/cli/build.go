package cli

import (
	"github.com/spf13/cobra"

	"salescube/internal/logging"
	"salescube/internal/pipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the aggregated sales cube CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		applySourceFlags(cmd)
		applyCubeFlags(cmd)
		if err := cfg.ValidateCube(); err != nil {
			return err
		}

		m, err := newMetricsBackend(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		res, err := pipeline.BuildCube(cmd.Context(), cfg, m)
		if err != nil {
			return err
		}
		logging.Logger.Info().
			Str("run_id", res.RunID).
			Int("facts", res.FactRows).
			Int("groups", res.CubeRows).
			Str("output", res.OutputPath).
			Msg("cube build complete")
		return nil
	},
}

func init() {
	addSourceFlags(buildCmd)
	addCubeFlags(buildCmd)
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("sales", "", "sales CSV path")
	cmd.Flags().String("customers", "", "customers CSV path")
	cmd.Flags().String("products", "", "products CSV path")
}

func applySourceFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("sales") {
		cfg.Sources.SalesPath, _ = cmd.Flags().GetString("sales")
	}
	if cmd.Flags().Changed("customers") {
		cfg.Sources.CustomersPath, _ = cmd.Flags().GetString("customers")
	}
	if cmd.Flags().Changed("products") {
		cfg.Sources.ProductsPath, _ = cmd.Flags().GetString("products")
	}
}

func addCubeFlags(cmd *cobra.Command) {
	cmd.Flags().String("output", "", "cube CSV output path")
	cmd.Flags().String("reference-date", "", "tenure reference date (YYYY-MM-DD, default now)")
	cmd.Flags().Bool("group-by-amount", true, "keep the raw sale amount in the grouping key")
}

func applyCubeFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("output") {
		cfg.Cube.OutputPath, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("reference-date") {
		cfg.Cube.ReferenceDate, _ = cmd.Flags().GetString("reference-date")
	}
	if cmd.Flags().Changed("group-by-amount") {
		cfg.Cube.GroupByAmount, _ = cmd.Flags().GetBool("group-by-amount")
	}
}
