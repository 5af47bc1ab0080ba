// Command salescube builds the aggregated sales cube and rebuilds the
// relational sales warehouse from cleaned CSV inputs.
package main

import (
	"os"

	"salescube/internal/cli"
	"salescube/internal/logging"

	// Storage backends register themselves on import.
	_ "salescube/internal/storage/mssql"
	_ "salescube/internal/storage/postgres"
	_ "salescube/internal/storage/sqlite"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Logger.Error().Err(err).Msg("salescube failed")
		os.Exit(1)
	}
}
