package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rmaia/pendencias-monitor/internal/modules/trends"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List stored run snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, env, err := loadEnv(false)
		if err != nil {
			return err
		}

		svc := trends.NewService(cfg.OutputDir, env.log)

		files, err := svc.ListSnapshotFiles()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nenhum arquivo de resultado encontrado")
			return nil
		}

		for _, path := range files {
			line := filepath.Base(path)
			if stat, err := os.Stat(path); err == nil {
				line = fmt.Sprintf("%s (modificado: %s)", line, stat.ModTime().Format("02/01/2006 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}

		return nil
	},
}
