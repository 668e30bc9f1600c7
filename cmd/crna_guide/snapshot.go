package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jonathan/crna-guide/internal/db"
	"github.com/jonathan/crna-guide/internal/snapshot"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage snapshots in the PostgreSQL store",
	Long:  "Stores, reads, lists and deletes applicant snapshots in the database used by GET /v1/users/{id}/guidance.",
}

var snapshotPutCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Store a snapshot file (its user_id must be a UUID)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotPut,
}

var snapshotGetCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotGet,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently updated snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotDelete,
}

var (
	snapshotDatabaseURL string
	snapshotLimit       int
)

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotDatabaseURL, "db-url", "", "Database URL (defaults to database.url from config)")
	snapshotListCmd.Flags().IntVar(&snapshotLimit, "limit", 20, "Maximum snapshots to list")

	snapshotCmd.AddCommand(snapshotPutCmd, snapshotGetCmd, snapshotListCmd, snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// connectStore opens the snapshot store and makes sure its table exists.
func connectStore(ctx context.Context) (*db.DB, error) {
	databaseURL := snapshotDatabaseURL
	if databaseURL == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		databaseURL = cfg.Database.URL
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL not set (set CRNA_DATABASE_URL, database.url in config, or use --db-url)")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func runSnapshotPut(cmd *cobra.Command, args []string) error {
	raw, err := snapshot.LoadFile(args[0])
	if err != nil {
		return err
	}
	// Reject snapshots the engine would refuse before they reach the store.
	if _, err := snapshot.Normalize(raw); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	database, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	id, err := database.SaveSnapshot(ctx, raw)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored snapshot for user %s\n", id)
	return nil
}

func runSnapshotGet(cmd *cobra.Command, args []string) error {
	id, err := db.ParseUserID(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	database, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	raw, err := database.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("no snapshot stored for user %s", id)
	}
	return writeJSON(cmd.OutOrStdout(), "", raw)
}

func runSnapshotList(cmd *cobra.Command, _ []string) error {
	if snapshotLimit <= 0 {
		return fmt.Errorf("limit must be greater than 0, got %d", snapshotLimit)
	}

	ctx := commandContext(cmd)
	database, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	records, err := database.ListSnapshots(ctx, snapshotLimit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "USER ID\tUPDATED\tPROGRAMS")
	for _, rec := range records {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", rec.UserID, rec.UpdatedAt.Format("2006-01-02 15:04"), len(rec.Snapshot.Programs))
	}
	return tw.Flush()
}

func runSnapshotDelete(cmd *cobra.Command, args []string) error {
	id, err := db.ParseUserID(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	database, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	deleted, err := database.DeleteSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No snapshot stored for user %s\n", id)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted snapshot for user %s\n", id)
	return nil
}
