// Package watchcmder provides the watch command for auto-ingesting files
// dropped into a directory.
package watchcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/engramlabs/engram/pkg/apiclient"
	"github.com/engramlabs/engram/pkg/config"
	"github.com/engramlabs/engram/pkg/content/file"
	"github.com/engramlabs/engram/pkg/logger"
)

type watchCommander struct {
	dir   string
	owner string

	apiTarget string

	debug  bool
	logger *zap.Logger
}

const watchLongDesc string = `Watch a directory and ingest files as they appear.

Any .txt or .md file created or modified under the watched directory is read
and ingested into the memory graph for the given owner. Runs until
interrupted.

Example:
  engram watch ./notes --owner ana
  engram watch ~/inbox --owner team --api-target http://localhost:8080`

const watchShortDesc string = "Watch a directory and ingest dropped files"

// Editors fire several events per save; ingestions for the same path within
// this window are collapsed into one.
const debounceWindow = 2 * time.Second

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.API.Target
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.dir = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.owner, "owner", "o", os.Getenv("ENGRAM_OWNER"), "Owner ingested files belong to")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.API.Target, "URL of a running engram API server")

	return cmd
}

func (c *watchCommander) run() error {
	if c.owner == "" {
		return fmt.Errorf("owner is required (use --owner or set ENGRAM_OWNER)")
	}

	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("checking watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.dir)
	}

	client, err := apiclient.New(c.apiTarget, c.owner)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watching %s: %w", c.dir, err)
	}

	c.logger.Info("watching directory",
		zap.String("dir", c.dir),
		zap.String("owner", c.owner),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	lastIngest := map[string]time.Time{}

	for {
		select {
		case <-sigChan:
			c.logger.Info("stopping watcher")
			return nil
		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !ingestable(event.Name) {
				continue
			}
			if time.Since(lastIngest[event.Name]) < debounceWindow {
				continue
			}
			lastIngest[event.Name] = time.Now()

			c.ingestFile(client, event.Name)
		case err := <-watcher.Errors:
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func ingestable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}

func (c *watchCommander) ingestFile(client *apiclient.Client, path string) {
	extracted, err := file.NewProducer().Produce(context.Background(), path)
	if err != nil {
		c.logger.Warn("failed to read file", zap.String("path", path), zap.Error(err))
		return
	}

	doc, err := client.IngestNote(context.Background(), extracted.Text, extracted.Title, path)
	if err != nil {
		c.logger.Warn("failed to ingest file", zap.String("path", path), zap.Error(err))
		return
	}

	c.logger.Info("ingested file",
		zap.String("path", path),
		zap.String("document_id", doc.ID),
		zap.Int("memories", len(doc.MemoryIDs)),
	)
}
