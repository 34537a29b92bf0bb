package cli

import (
	"fmt"
)

// Args represents the top-level command structure
type Args struct {
	Watch  *WatchCmd  `arg:"subcommand:watch" help:"Run the clipboard capture daemon"`
	List   *ListCmd   `arg:"subcommand:list" help:"List recent history entries"`
	Search *SearchCmd `arg:"subcommand:search" help:"Search history entries"`
	Get    *GetCmd    `arg:"subcommand:get" help:"Print one entry's content to stdout"`
	Copy   *CopyCmd   `arg:"subcommand:copy" help:"Write one entry back to the clipboard"`
	Delete *DeleteCmd `arg:"subcommand:delete" help:"Delete entries by id or group"`
	Clear  *ClearCmd  `arg:"subcommand:clear" help:"Clear expired or all history"`

	DBPath     *string `arg:"--db" help:"Database file path (default: ~/.config/clipvault/history.db)"`
	ConfigPath *string `arg:"--config" help:"Config file path (default: ~/.config/clipvault/config.yaml)"`
}

// WatchCmd runs the capture loop until interrupted.
type WatchCmd struct {
	Interval *int `arg:"--interval" help:"Poll interval in milliseconds (overrides config)"`
}

// ListCmd lists recent entries newest first.
type ListCmd struct {
	Limit  int    `arg:"-n,--limit" default:"20" help:"Maximum entries to show"`
	Offset int    `arg:"--offset" help:"Entries to skip"`
	Group  *int64 `arg:"-g,--group" help:"Only entries in this group"`
}

// SearchCmd searches entries with a composed filter.
type SearchCmd struct {
	Keyword string   `arg:"positional" help:"Keyword matched against entry text"`
	Tags    []string `arg:"-t,--tag,separate" help:"Filter by tag (string, rich, image, file, link, color)"`
	Apps    []string `arg:"-a,--app,separate" help:"Filter by source application name"`
	Limit   int      `arg:"-n,--limit" default:"50" help:"Maximum entries to show"`
}

// GetCmd prints one entry's raw content to stdout.
type GetCmd struct {
	ID int64 `arg:"positional,required" help:"Entry id"`
}

// CopyCmd writes one entry back to the OS clipboard.
type CopyCmd struct {
	ID int64 `arg:"positional,required" help:"Entry id"`
}

// DeleteCmd deletes entries.
type DeleteCmd struct {
	IDs   []int64 `arg:"positional" help:"Entry ids to delete"`
	Group *int64  `arg:"-g,--group" help:"Delete every entry in this group"`
}

// ClearCmd clears history.
type ClearCmd struct {
	Expired bool `arg:"--expired" help:"Run the retention sweep now"`
	All     bool `arg:"--all" help:"Delete the entire history"`
	Force   bool `arg:"-f,--force" help:"Skip the confirmation prompt for --all"`
}

// Description returns the program description
func (Args) Description() string {
	return "clipvault - local clipboard history engine"
}

// Version returns the program version
func (Args) Version() string {
	return "clipvault 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  clipvault watch                  # Run the capture daemon
  clipvault list -n 10             # Show the 10 newest entries
  clipvault search "invoice" -t string
  clipvault get 42 > out.txt       # Print entry 42's content
  clipvault copy 42                # Put entry 42 back on the clipboard
  clipvault delete 42 43           # Delete entries by id
  clipvault clear --expired        # Run the retention sweep
  clipvault clear --all --force    # Wipe the history`
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.Delete != nil {
		return args.Delete.Validate()
	}
	if args.Clear != nil {
		return args.Clear.Validate()
	}
	return nil
}

// Validate validates delete command arguments
func (d *DeleteCmd) Validate() error {
	if len(d.IDs) == 0 && d.Group == nil {
		return fmt.Errorf("specify entry ids or --group")
	}
	if len(d.IDs) > 0 && d.Group != nil {
		return fmt.Errorf("cannot specify both ids and --group")
	}
	return nil
}

// Validate validates clear command arguments
func (c *ClearCmd) Validate() error {
	if c.Expired == c.All {
		return fmt.Errorf("specify exactly one of --expired or --all")
	}
	return nil
}
