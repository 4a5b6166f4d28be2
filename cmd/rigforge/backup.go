package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/backup"
	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/internal/store"
)

var (
	backupOutput        string
	backupDataDir       string
	backupConfigFile    string
	backupRetentionDays int

	restoreInput   string
	restoreDataDir string
	restoreForce   bool
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a tar.gz archive of the database and config",
	Long: `Checkpoint the SQLite write-ahead log and archive the database together
with an optional config file. Archives older than the retention period are
removed from the output directory afterwards.

The default output directory and retention come from the backup.directory
and backup.retention_days shop settings; --output and --retention-days
override them (--retention-days 0 keeps every archive).`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a backup archive into a data directory",
	Long: `Extract an archive written by 'rigforge backup'. Existing files are
only replaced with --force. Stop the server before restoring.`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func init() {
	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file path (default: <backup.directory>/rigforge-backup-{timestamp}.tar.gz)")
	backupCmd.Flags().StringVar(&backupDataDir, "data-dir", ".", "directory containing the database")
	backupCmd.Flags().StringVar(&backupConfigFile, "config-file", "", "config file to include in the archive (default: the --config file)")
	backupCmd.Flags().IntVar(&backupRetentionDays, "retention-days", 0, "remove archives older than this many days (default: backup.retention_days, 0 keeps all)")

	restoreCmd.Flags().StringVarP(&restoreInput, "input", "i", "", "archive to restore (required)")
	restoreCmd.Flags().StringVar(&restoreDataDir, "data-dir", ".", "directory to restore into")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "overwrite existing files")
	_ = restoreCmd.MarkFlagRequired("input")
}

func runBackup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	now := time.Now()
	dbPath := filepath.Join(backupDataDir, backup.DatabaseFile)

	policy, err := loadBackupPolicy(ctx, dbPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("retention-days") {
		policy.Retention = time.Duration(backupRetentionDays) * 24 * time.Hour
	}

	output := backupOutput
	if output == "" {
		if err := os.MkdirAll(policy.Directory, 0o750); err != nil {
			return fmt.Errorf("create backup directory: %w", err)
		}
		output = filepath.Join(policy.Directory, backup.ArchiveName(now))
	}

	configFile := backupConfigFile
	if configFile == "" {
		configFile = configPath
	}

	if err := backup.Backup(ctx, dbPath, configFile, output); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", output)

	if policy.Retention <= 0 {
		return nil
	}
	removed, err := backup.Prune(filepath.Dir(output), policy.Retention, now)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	for _, p := range removed {
		logger.Info("removed expired backup", zap.String("path", p))
	}
	return nil
}

// loadBackupPolicy reads the backup settings stored in the database at
// dbPath. The database must already exist.
func loadBackupPolicy(ctx context.Context, dbPath string) (services.BackupPolicy, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return services.BackupPolicy{}, fmt.Errorf("database file not found: %w", err)
	}
	db, err := store.New(dbPath)
	if err != nil {
		return services.BackupPolicy{}, err
	}
	defer db.Close()

	settings, err := services.NewSQLiteSettingsRepository(ctx, db)
	if err != nil {
		return services.BackupPolicy{}, err
	}
	return settings.BackupPolicy(ctx)
}

func runRestore(cmd *cobra.Command, _ []string) error {
	if err := backup.Restore(cmd.Context(), restoreInput, restoreDataDir, restoreForce); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s into %s\n", restoreInput, restoreDataDir)
	return nil
}
