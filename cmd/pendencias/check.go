package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rmaia/pendencias-monitor/internal/database"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test database connectivity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadEnv(false)
		if err != nil {
			return err
		}

		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintln(cmd.OutOrStdout(), green("Conexão com o banco estabelecida com sucesso!"))

		return nil
	},
}
