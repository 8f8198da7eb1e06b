package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/brandkit/internal/http/server"
	"github.com/dropDatabas3/brandkit/internal/observability/logger"
	"github.com/dropDatabas3/brandkit/internal/util/atomicwrite"
)

func newHarvestCmd(load configLoader) *cobra.Command {
	var reportFile string
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Corre el snapshot diario de todas las cuentas de Instagram conectadas",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := logger.ToContext(cmd.Context(), logger.L())

			app, err := server.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.Harvester.Run(ctx)
			if err != nil {
				return err
			}
			b, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			if reportFile != "" {
				if err := atomicwrite.WriteFile(reportFile, append(b, '\n'), 0o644); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if report.Failed > 0 {
				return fmt.Errorf("%d de %d cuentas fallaron", report.Failed, report.Processed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportFile, "report-file", "", "además de stdout, escribe el reporte JSON en este archivo")
	return cmd
}
