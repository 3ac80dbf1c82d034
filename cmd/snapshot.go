package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	internalApp "github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/dao"
	"github.com/haierkeys/note-registry-service/internal/task"
	"github.com/haierkeys/note-registry-service/pkg/storage"

	"github.com/bytedance/sonic"
	"github.com/gookit/goutil/dump"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type snapshotFlags struct {
	config  string
	output  string
	upload  bool
	verbose bool
}

func init() {
	flags := new(snapshotFlags)

	var snapshotCommand = &cobra.Command{
		Use:   "snapshot [-c config_file] [-o file] [--upload]",
		Short: "Export a registry snapshot. // 导出注册表快照。",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := resolveConfigPath(flags.config)
			if err != nil {
				return err
			}
			appConfig, _, err := internalApp.LoadConfig(config)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if appConfig.Database.IsMemory() {
				return fmt.Errorf("database type memory has nothing to export")
			}

			lg := bootstrapLogger
			db, err := dao.NewDBEngineWithConfig(appConfig.Database, appConfig.Server.RunMode, lg)
			if err != nil {
				return err
			}
			a, err := internalApp.NewApp(appConfig, lg, db)
			if err != nil {
				return err
			}
			defer func() { _ = a.Shutdown(nil) }()

			ctx := context.Background()

			if flags.upload {
				storager, err := storage.NewClient(&appConfig.Snapshot.Storage, lg)
				if err != nil {
					return err
				}
				key, err := task.UploadSnapshot(ctx, a.RegistryService, storager, time.Now())
				if err != nil {
					return err
				}
				lg.Info("registry snapshot uploaded", zap.String("key", key))
				return nil
			}

			snap, err := a.RegistryService.Snapshot(ctx)
			if err != nil {
				return err
			}
			if flags.verbose {
				dump.P(snap)
			}

			content, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			if flags.output == "" {
				fmt.Println(string(content))
				return nil
			}
			if err := os.WriteFile(flags.output, content, 0644); err != nil {
				return err
			}
			lg.Info("registry snapshot written",
				zap.String("file", flags.output),
				zap.Int("notes", len(snap.Notes)))
			return nil
		},
	}

	rootCmd.AddCommand(snapshotCommand)
	fs := snapshotCommand.Flags()
	fs.StringVarP(&flags.config, "config", "c", "", "config file")
	fs.StringVarP(&flags.output, "output", "o", "", "write the snapshot to this file instead of stdout")
	fs.BoolVar(&flags.upload, "upload", false, "upload to snapshot.storage instead of printing")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "dump the snapshot before writing it")
}
