// brandkit es la CLI de operación: harvest manual, migraciones y sellado de
// tokens para cargas a mano.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/brandkit/internal/config"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

func main() {
	var (
		configPath string
		envFile    = ".env"
	)

	root := &cobra.Command{
		Use:           "brandkit",
		Short:         "CLI de operación de brandkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				_ = godotenv.Load(envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o solo env)")
	root.PersistentFlags().StringVar(&envFile, "env-file", envFile, "ruta a .env (si existe, se carga)")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Resolve(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "brandkit-cli"})
		return cfg, nil
	}

	root.AddCommand(
		newHarvestCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newSealCmd(loadConfig),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)
