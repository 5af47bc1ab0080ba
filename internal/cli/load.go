package cli

import (
	"github.com/spf13/cobra"

	"salescube/internal/logging"
	"salescube/internal/pipeline"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Rebuild the relational warehouse from the input CSVs",
	RunE: func(cmd *cobra.Command, args []string) error {
		applySourceFlags(cmd)
		applyWarehouseFlags(cmd)
		if err := cfg.ValidateWarehouse(); err != nil {
			return err
		}

		m, err := newMetricsBackend(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		res, err := pipeline.LoadWarehouse(cmd.Context(), cfg, m)
		if err != nil {
			return err
		}
		logging.Logger.Info().
			Str("run_id", res.RunID).
			Int("customers", res.Stats.CustomersLoaded).
			Int("products", res.Stats.ProductsLoaded).
			Int("sales", res.Stats.SalesLoaded).
			Msg("warehouse load complete")
		return nil
	},
}

func init() {
	addSourceFlags(loadCmd)
	addWarehouseFlags(loadCmd)
}

func addWarehouseFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "", "storage backend (sqlite, postgres, mssql)")
	cmd.Flags().String("dsn", "", "backend connection string")
	cmd.Flags().Int("batch-size", 0, "rows per INSERT statement")
}

func applyWarehouseFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("kind") {
		cfg.Warehouse.Kind, _ = cmd.Flags().GetString("kind")
	}
	if cmd.Flags().Changed("dsn") {
		cfg.Warehouse.DSN, _ = cmd.Flags().GetString("dsn")
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.Warehouse.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	}
}
