package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kaeva-factcheck/internal/config"
	"kaeva-factcheck/internal/repository/postgresql"
	"kaeva-factcheck/internal/repository/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply job store migrations (postgres or sqlite)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s := cfg.Store

		switch s.Driver {
		case "postgres":
			if s.DatabaseURL == "" {
				return eris.New("store.database_url is required")
			}
			pool, err := openPostgres(ctx, s.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgresql.Migrate(ctx, pool); err != nil {
				return err
			}
			zap.L().Info("migrations applied", zap.String("dsn", config.RedactDSN(s.DatabaseURL)))

		case "sqlite":
			st, err := sqlite.Open(s.SQLitePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			zap.L().Info("migrations applied", zap.String("path", s.SQLitePath))

		default:
			return eris.Errorf("store driver %q has no migrations", s.Driver)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
