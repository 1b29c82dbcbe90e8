package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churchadmin/internal/config"
	"churchadmin/internal/database"
	"churchadmin/internal/logging"
	"churchadmin/internal/service"
)

var (
	exportOutput string
	importInput  string
	importClear  bool
	assumeYes    bool
	s3Key        string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export and restore the parish database",
	Long: `Export every account and parish record to a JSON file, restore one, or
copy backups to and from the configured S3 bucket (BACKUP_BUCKET).`,
	SilenceUsage: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON backup file",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore a JSON backup file",
	RunE:  runImport,
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a backup to S3",
	RunE:  runUpload,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <key>",
	Short: "Restore a backup stored in S3",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Input file path")
	importCmd.Flags().BoolVar(&importClear, "clear", false, "Clear existing data before import (WARNING: destructive)")
	importCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	_ = importCmd.MarkFlagRequired("input")

	uploadCmd.Flags().StringVar(&s3Key, "key", "", "Object key (default: prefix + timestamped name)")

	restoreCmd.Flags().BoolVar(&importClear, "clear", false, "Clear existing data before import (WARNING: destructive)")
	restoreCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(exportCmd, importCmd, uploadCmd, restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every subcommand needs
type env struct {
	cfg    *config.Config
	db     *database.DB
	backup *service.BackupService
	logger *zap.Logger
}

func (e *env) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}

// setup loads configuration and opens the migrated database
func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		return nil, err
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx, cfg.MigrationsPath, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &env{cfg: cfg, db: db, backup: service.NewBackupService(db, logger), logger: logger}, nil
}

func backupName() string {
	return fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
}

func runExport(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	outputPath := exportOutput
	if outputPath == "" {
		outputPath = backupName()
	}
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	e.logger.Info("exporting database", zap.String("path", outputPath))
	if err := e.backup.ExportToWriter(cmd.Context(), f); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	if info, err := os.Stat(outputPath); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Export complete: %s (%.2f MB)\n", outputPath, float64(info.Size())/1024/1024)
	}
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	if importClear && !confirm(cmd) {
		fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled")
		return nil
	}

	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	f, err := os.Open(importInput)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer f.Close()

	e.logger.Info("importing database", zap.String("path", importInput), zap.Bool("clear", importClear))
	if err := e.backup.ImportFromReader(cmd.Context(), f, importClear); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Import complete")
	return nil
}

func runUpload(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.BackupBucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is not configured")
	}
	client, err := service.NewS3Client(cmd.Context(), e.cfg.AWSRegion)
	if err != nil {
		return err
	}

	key := s3Key
	if key == "" {
		key = path.Join(e.cfg.BackupPrefix, backupName())
	}
	if err := e.backup.UploadToS3(cmd.Context(), client, e.cfg.BackupBucket, key); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded s3://%s/%s\n", e.cfg.BackupBucket, key)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	if importClear && !confirm(cmd) {
		fmt.Fprintln(cmd.OutOrStdout(), "Restore cancelled")
		return nil
	}

	e, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.BackupBucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is not configured")
	}
	client, err := service.NewS3Client(cmd.Context(), e.cfg.AWSRegion)
	if err != nil {
		return err
	}
	if err := e.backup.RestoreFromS3(cmd.Context(), client, e.cfg.BackupBucket, args[0], importClear); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored s3://%s/%s\n", e.cfg.BackupBucket, args[0])
	return nil
}

// confirm asks before destroying existing data
func confirm(cmd *cobra.Command) bool {
	if assumeYes {
		return true
	}
	fmt.Fprint(cmd.OutOrStdout(), "WARNING: This will delete all existing data. Type 'yes' to confirm: ")
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}
