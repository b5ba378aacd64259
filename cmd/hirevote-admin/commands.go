// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/hirevote/auth"
	"github.com/danielhkuo/hirevote/cliparse"
	"github.com/danielhkuo/hirevote/migrate"
	"github.com/danielhkuo/hirevote/store"
	"github.com/danielhkuo/hirevote/store/backend"
	"github.com/danielhkuo/hirevote/voting"
)

// storeFlags selects the store the commands work on. Defaults come from the
// same environment variables the server reads.
type storeFlags struct {
	dbType  string
	url     string
	dataDir string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (f *storeFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.dbType, "type", "t", envOr("DATABASE_TYPE", cliparse.DatabaseSQLite), "Database type (sqlite, postgres or json)")
	pf.StringVarP(&f.url, "url", "d", os.Getenv("DATABASE_URL"), "Database URL")
	pf.StringVar(&f.dataDir, "data-dir", envOr("DATA_DIR", cliparse.DefaultDataDir), "Data directory for the json backend")
}

func (f *storeFlags) open(cmd *cobra.Command) (store.Store, error) {
	if f.dbType != cliparse.DatabaseJSON && f.url == "" {
		return nil, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	return backend.Open(cmd.Context(), f.dbType, f.url, f.dataDir)
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

func newRootCmd() *cobra.Command {
	var flags storeFlags

	root := &cobra.Command{
		Use:           "hirevote-admin",
		Short:         "hirevote maintenance",
		Long:          `Offline maintenance for hirevote: data imports, backfills and key generation`,
		SilenceUsage:  true,
	}
	flags.register(root)

	root.AddCommand(
		newMigrateCmd(&flags),
		newBackfillCmd(&flags),
		newRolesCmd(&flags),
		newGenKeyCmd(),
	)
	return root
}

func newMigrateCmd(flags *storeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import data into the configured store",
	}

	var legacyDir string
	legacy := &cobra.Command{
		Use:   "legacy",
		Short: "Import the single-role config.json and votes.json as one role",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			role, report, err := migrate.New(st, newLogger(cmd)).ImportLegacy(cmd.Context(), legacyDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported role %s (%s): %d candidates, %d votes, %d skipped\n",
				role.ID, role.Position, report.Candidates, report.Votes, report.Skipped)
			return nil
		},
	}
	legacy.Flags().StringVar(&legacyDir, "dir", ".", "Directory holding config.json and votes.json")

	var jsonDir string
	var force bool
	fromJSON := &cobra.Command{
		Use:   "json",
		Short: "Copy a roles.json / votes.json directory into the SQL database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dbType == cliparse.DatabaseJSON {
				return errors.New("target must be a SQL database (use -t sqlite or -t postgres)")
			}
			st, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := migrate.New(st, newLogger(cmd)).CopyJSON(cmd.Context(), jsonDir, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d roles, %d candidates, %d votes (%d skipped)\n",
				report.Roles, report.Candidates, report.Votes, report.Skipped)
			return nil
		},
	}
	fromJSON.Flags().StringVar(&jsonDir, "dir", cliparse.DefaultDataDir, "Directory holding roles.json and votes.json")
	fromJSON.Flags().BoolVar(&force, "force", false, "Replace existing data in the target")

	cmd.AddCommand(legacy, fromJSON)
	return cmd
}

func newBackfillCmd(flags *storeFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "backfill-hiring-manager",
		Short: "Set the hiring manager on roles that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			updated, err := migrate.New(st, newLogger(cmd)).BackfillHiringManager(cmd.Context(), email)
			if err != nil {
				return err
			}
			if len(updated) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "All roles already have a hiring manager.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d roles\n", len(updated))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Hiring manager email")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newRolesCmd(flags *storeFlags) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List roles with voting progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := voting.New(st, voting.WithLogger(newLogger(cmd)))
			roles, err := svc.ListRoles(cmd.Context(), status)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPOSITION\tSTATUS\tVOTES\tUPDATED")
			for _, r := range roles {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
					r.ID, r.Position, r.Status, r.VotesReceived, r.VotesNeeded, humanize.Time(r.UpdatedAt))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only roles with this status")
	return cmd
}

func newGenKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-key",
		Short: "Print a new random secret for ADMIN_KEY or EMAIL_SALT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
