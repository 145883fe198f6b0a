package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/qrgate/internal/config"
	"github.com/BrandonDHaskell/qrgate/internal/db"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/store"
	sqlitestore "github.com/BrandonDHaskell/qrgate/internal/qrgate/store/sqlite"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite migrations (sqlite store only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.StoreSQLite {
				return fmt.Errorf("migrate: store backend is %q, nothing to migrate", cfg.Store.Backend)
			}

			// Open applies pending migrations.
			conn, err := db.Open(cmd.Context(), db.Config{Path: cfg.Store.DBPath})
			if err != nil {
				return err
			}
			defer conn.Close()

			if !status {
				fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to %s\n", cfg.Store.DBPath)
				return nil
			}

			ms, err := db.Status(cmd.Context(), conn)
			if err != nil {
				return err
			}
			for _, m := range ms {
				state := "pending"
				if m.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%04d  %-8s %s\n", m.Version, state, m.Name)
			}

			writer := db.NewWorker(conn)
			defer writer.Close()
			cs := sqlitestore.NewCollectionStore(conn, writer, nil)

			fmt.Fprintln(cmd.OutOrStdout())
			for _, name := range store.All() {
				v, err := cs.Version(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s v%d\n", name, v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list migrations and the write version of each collection")
	return cmd
}
