package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/config"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			switch action {
			case "down":
				r, err := database.MigrateDown(ctx, cfg.Database.URL)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "rolled back %d %s (%s)\n", r.Version, r.Source, r.Duration)

			case "status":
				states, err := database.MigrationStatus(ctx, cfg.Database.URL)
				if err != nil {
					return err
				}
				for _, st := range states {
					applied := "-"
					if !st.AppliedAt.IsZero() {
						applied = st.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "%05d  %-8s  %-19s  %s\n", st.Version, st.State, applied, st.Source)
				}

			default:
				results, err := database.Migrate(ctx, cfg.Database.URL)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintln(out, "no pending migrations")
				}
				for _, r := range results {
					fmt.Fprintf(out, "applied %d %s (%s)\n", r.Version, r.Source, r.Duration)
				}
			}
			return nil
		},
	}
}
