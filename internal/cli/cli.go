// Package cli wires the engine together and exposes it as commands.
// Construction happens once at process start; the store, watcher and
// cache are passed explicitly rather than held as globals.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/clipvault/clipvault/internal/capture"
	"github.com/clipvault/clipvault/internal/clipboard/sysboard"
	"github.com/clipvault/clipvault/internal/config"
	"github.com/clipvault/clipvault/internal/history"
	"github.com/clipvault/clipvault/internal/logger"
	"github.com/clipvault/clipvault/internal/retention"
	"github.com/clipvault/clipvault/internal/store"
	"github.com/clipvault/clipvault/internal/store/dbstore"
)

// CLI handles the command-line interface
type CLI struct {
	store store.Store
	cfg   *config.Config
	log   logger.Logger
}

// NewWithArgs creates a CLI instance, opening the store at the path
// resolved from flags, config and defaults in that order.
func NewWithArgs(args *Args) (*CLI, error) {
	cfgManager, err := configManager(args)
	if err != nil {
		return nil, err
	}
	cfg, err := cfgManager.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.LogLevel, cfg.LogPretty)

	dbPath, err := resolveDBPath(args, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	st, err := dbstore.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}

	return &CLI{store: st, cfg: cfg, log: log}, nil
}

func configManager(args *Args) (*config.Manager, error) {
	if args != nil && args.ConfigPath != nil {
		return config.NewManagerWithPath(*args.ConfigPath), nil
	}
	return config.NewManager()
}

func resolveDBPath(args *Args, cfg *config.Config) (string, error) {
	if args != nil && args.DBPath != nil {
		return *args.DBPath, nil
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "clipvault", "history.db"), nil
}

// Close releases the store.
func (c *CLI) Close() error {
	return c.store.Close()
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	switch {
	case args.Watch != nil:
		return c.executeWatch(args.Watch)
	case args.List != nil:
		return c.executeList(ctx, args.List)
	case args.Search != nil:
		return c.executeSearch(ctx, args.Search)
	case args.Get != nil:
		return c.executeGet(ctx, args.Get)
	case args.Copy != nil:
		return c.executeCopy(ctx, args.Copy)
	case args.Delete != nil:
		return c.executeDelete(ctx, args.Delete)
	case args.Clear != nil:
		return c.executeClear(ctx, args.Clear)
	default:
		return fmt.Errorf("no command specified")
	}
}

// executeWatch runs the capture daemon: tag migration in the
// background, the poll loop, and the daily retention sweep.
func (c *CLI) executeWatch(cmd *WatchCmd) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	board, err := sysboard.New()
	if err != nil {
		return fmt.Errorf("failed to access clipboard: %w", err)
	}

	interval := c.cfg.PollInterval()
	if cmd.Interval != nil {
		interval = time.Duration(*cmd.Interval) * time.Millisecond
	}

	watcher := capture.NewWatcher(board, board, c.store, c.log, capture.Options{
		Interval:        interval,
		MaxItemSize:     c.cfg.MaxItemSizeKB * 1024,
		IgnoreSensitive: c.cfg.IgnoreSensitive,
		IgnoreList:      c.cfg.IgnoreList(),
	})

	cache, err := history.NewCache(ctx, c.store, c.log, history.Options{
		PageSize: c.cfg.PageSize,
	})
	if err != nil {
		return fmt.Errorf("failed to build history cache: %w", err)
	}

	policy := retention.NewPolicy(c.store, c.log, c.cfg.Retention)

	// Resumable tag backfill stays off the capture path.
	go func() {
		if err := c.store.MigrateTags(ctx); err != nil && ctx.Err() == nil {
			c.log.Warn("tag migration interrupted", logger.Error(err))
		}
	}()

	// The sweep loop keeps expiring across calendar days while the
	// daemon stays up.
	go policy.Run(ctx, retention.SweepCheckInterval)

	watcher.Start(ctx)

	// Fold captures into the live window until shutdown.
	for {
		select {
		case <-ctx.Done():
			c.log.Info("clipboard watcher stopped")
			return nil
		case ev := <-watcher.Events():
			cache.InsertCaptured(ev.Record)
		}
	}
}

func (c *CLI) executeList(ctx context.Context, cmd *ListCmd) error {
	filter := &store.Filter{Group: cmd.Group}
	rows, err := c.store.Query(ctx, filter, cmd.Limit, cmd.Offset)
	if err != nil {
		return err
	}
	printRows(rows)
	return nil
}

func (c *CLI) executeSearch(ctx context.Context, cmd *SearchCmd) error {
	filter := &store.Filter{
		Keyword: cmd.Keyword,
		Tags:    cmd.Tags,
		Apps:    cmd.Apps,
	}
	rows, err := c.store.Query(ctx, filter, cmd.Limit, 0)
	if err != nil {
		return err
	}
	printRows(rows)
	return nil
}

func (c *CLI) executeGet(ctx context.Context, cmd *GetCmd) error {
	rec, err := c.store.GetByID(ctx, cmd.ID)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(rec.RawData)
	return err
}

func (c *CLI) executeCopy(ctx context.Context, cmd *CopyCmd) error {
	rec, err := c.store.GetByID(ctx, cmd.ID)
	if err != nil {
		return err
	}

	board, err := sysboard.New()
	if err != nil {
		return fmt.Errorf("failed to access clipboard: %w", err)
	}

	// Self-write suppression lives in the watcher and only covers its
	// own process; a daemon elsewhere re-captures this write, and
	// replace-by-hash keeps it a single row there.
	if err := board.Write(formatForCopy(rec), rec.RawData); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	// Re-paste bumps the timestamp so the entry moves to the front.
	return c.store.Update(ctx, rec.ID, store.Fields{"timestamp": time.Now().Unix()})
}

func (c *CLI) executeDelete(ctx context.Context, cmd *DeleteCmd) error {
	if cmd.Group != nil {
		return c.store.DeleteByGroup(ctx, *cmd.Group)
	}
	return c.store.DeleteByIDs(ctx, cmd.IDs)
}

func (c *CLI) executeClear(ctx context.Context, cmd *ClearCmd) error {
	if cmd.Expired {
		policy := retention.NewPolicy(c.store, c.log, c.cfg.Retention)
		removed, err := policy.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired entries\n", removed)
		return nil
	}

	// Clearing everything is irreversible; ask unless forced.
	if !cmd.Force && !confirm("Delete the entire clipboard history?") {
		fmt.Println("Aborted")
		return nil
	}
	if err := c.store.DeleteAll(ctx); err != nil {
		return err
	}
	fmt.Println("History cleared")
	return nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
