// Package main inspects the reading progress database of a device.
//
// Usage:
//
//	progressctl [-path dir] list
//	progressctl [-path dir] show <bookId>
//	progressctl [-path dir] device-id
//
// The path defaults to the configured reader progress directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shelfside/shelfside/internal/config"
	"github.com/shelfside/shelfside/internal/logger"
	"github.com/shelfside/shelfside/internal/progress"
)

var errUsage = errors.New("usage: progressctl [-path dir] list | show <bookId> | device-id")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("progressctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("path", "", "Progress database directory")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	if *path == "" {
		cfg, err := config.Load(nil)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		*path = cfg.Reader.ProgressPath
	}

	cmd := fs.Arg(0)
	switch cmd {
	case "list", "show", "device-id":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if cmd == "show" && fs.NArg() != 2 {
		return errUsage
	}

	// Only device-id may need to write, to create the identifier.
	kv, err := progress.OpenBadgerKV(*path, progress.BadgerOptions{ReadOnly: cmd != "device-id"})
	if err != nil {
		return err
	}
	defer kv.Close()

	log := logger.New(logger.Config{Writer: io.Discard})
	store := progress.NewStore(kv, log.Logger)

	switch cmd {
	case "list":
		return list(store, out)
	case "show":
		return show(store, fs.Arg(1), out)
	default:
		_, err := fmt.Fprintln(out, store.DeviceID())
		return err
	}
}

func list(store *progress.Store, out io.Writer) error {
	records, err := store.List()
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOK\tTHEME\tFONT\tUPDATED\tLOCATION")
	for _, p := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\t%s\t%s\n", p.BookID, p.Theme, p.FontSize, formatTime(p.UpdatedAt), orDash(p.Location))
	}
	return tw.Flush()
}

func show(store *progress.Store, bookID string, out io.Writer) error {
	p, ok := store.Load(bookID)
	if !ok {
		return fmt.Errorf("no readable progress for %q", bookID)
	}
	_, err := fmt.Fprintf(out, "book:      %s\ntheme:     %s\nfont size: %d%%\nupdated:   %s\nlocation:  %s\n",
		p.BookID, p.Theme, p.FontSize, formatTime(p.UpdatedAt), orDash(p.Location))
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Compile-time check that the badger KV can list keys for the list command.
var _ progress.KeyLister = (*progress.BadgerKV)(nil)
