package cli

import (
	"github.com/spf13/cobra"

	"salescube/internal/logging"
	"salescube/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild the warehouse, then build the cube",
	RunE: func(cmd *cobra.Command, args []string) error {
		applySourceFlags(cmd)
		applyCubeFlags(cmd)
		applyWarehouseFlags(cmd)
		if err := cfg.ValidateWarehouse(); err != nil {
			return err
		}
		if err := cfg.ValidateCube(); err != nil {
			return err
		}

		m, err := newMetricsBackend(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()

		loadRes, err := pipeline.LoadWarehouse(cmd.Context(), cfg, m)
		if err != nil {
			return err
		}
		buildRes, err := pipeline.BuildCube(cmd.Context(), cfg, m)
		if err != nil {
			return err
		}

		logging.Logger.Info().
			Str("load_run_id", loadRes.RunID).
			Str("build_run_id", buildRes.RunID).
			Int("sales", loadRes.Stats.SalesLoaded).
			Int("groups", buildRes.CubeRows).
			Msg("run complete")
		return nil
	},
}

func init() {
	addSourceFlags(runCmd)
	addCubeFlags(runCmd)
	addWarehouseFlags(runCmd)
}
