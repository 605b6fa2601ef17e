// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - The history command.
//
// Usage:
//
//	sheetcsv history [list] [--limit N]
//	sheetcsv history show <run-id-prefix>
//	sheetcsv history clear [--confirm]

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/sheetcsv-tui/internal/storage"
	"github.com/jeranaias/sheetcsv-tui/internal/util"
)

// defaultHistoryLimit is how many runs list shows without --limit.
const defaultHistoryLimit = 20

// HandleHistory handles the "history" command.
func HandleHistory(ctx context.Context, env *Env, args Args) error {
	if env.History == nil {
		return &ConfigError{Err: errors.New("history is disabled (set history.enabled = true)")}
	}

	raw := args.Raw
	if args.Subcommand != "" {
		raw = raw[1:]
	}
	p := NewArgParser(raw, "confirm", "force", "f")

	switch args.Subcommand {
	case "", "list", "ls":
		return handleHistoryList(ctx, env, args, p)
	case "show":
		return handleHistoryShow(ctx, env, args, p)
	case "clear":
		return handleHistoryClear(ctx, env, args, p)
	default:
		return ErrUnknownSubcommand("history", args.Subcommand, "sheetcsv history [list|show|clear]")
	}
}

func handleHistoryList(ctx context.Context, env *Env, args Args, p *ArgParser) error {
	limit := defaultHistoryLimit
	if p.HasFlag("limit") {
		n, err := p.FlagInt("limit")
		if err != nil {
			return err
		}
		limit = n
	}

	entries, err := env.History.List(ctx, limit)
	if err != nil {
		return err
	}
	if args.JSON {
		if entries == nil {
			entries = []storage.Entry{}
		}
		return NewJSONResponse("history", HistoryData{
			Path:    env.History.Path(),
			Entries: entries,
			Count:   len(entries),
		}).PrintTo(env.Stdout)
	}

	if len(entries) == 0 {
		printf(env.Stdout, args.Quiet, "%s\n", DimStyle.Render("No conversions recorded yet."))
		return nil
	}
	w := env.Stdout
	fmt.Fprintf(w, "%-8s  %-11s  %-20s  %-24s  %8s  %s\n", "ID", "STATUS", "SHEET", "DESTINATION", "ROWS", "WHEN")
	for _, e := range entries {
		fmt.Fprintf(w, "%-8s  %-11s  %-20s  %-24s  %8d  %s\n",
			shortID(e.ID), e.Status, util.TruncateWidth(e.Sheet, 20), util.TruncateWidth(baseName(e.Destination), 24),
			e.Rows, formatAge(e.Started))
	}
	return nil
}

func handleHistoryShow(ctx context.Context, env *Env, args Args, p *ArgParser) error {
	id := p.Positional(0)
	if id == "" {
		return ErrMissingArgument("run-id", "sheetcsv history show 3f2a")
	}
	entry, err := env.History.Get(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &NotFoundError{Resource: "run", ID: id, Err: err}
	case errors.Is(err, storage.ErrAmbiguous):
		return NewUsageError("run-id", id, "matches more than one run; use more characters")
	case err != nil:
		return err
	}

	if args.JSON {
		return NewJSONResponse("history", entry).PrintTo(env.Stdout)
	}
	printEntry(env.Stdout, entry)
	return nil
}

func handleHistoryClear(ctx context.Context, env *Env, args Args, p *ArgParser) error {
	ok, err := RequireConfirmation(env, "Delete every recorded run?", ConfirmationOptions{
		Forced:   p.BoolFlag("confirm", "force", "f"),
		JSONMode: args.JSON,
		Flag:     "--confirm",
	})
	if err != nil || !ok {
		return err
	}
	n, err := env.History.Clear(ctx)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("history", map[string]int64{"deleted": n}).PrintTo(env.Stdout)
	}
	printf(env.Stdout, args.Quiet, "%s Deleted %d runs\n", SuccessStyle.Render("[OK]"), n)
	return nil
}

func printEntry(w io.Writer, e *storage.Entry) {
	fmt.Fprintln(w, TitleStyle.Render("Run "+e.ID))
	fmt.Fprintln(w, RenderSeparator(41))
	row := func(label, value string) {
		fmt.Fprintf(w, "%s%s\n", RenderLabel(label), ValueStyle.Render(value))
	}
	row("Status:", RenderStatus(e.Status))
	row("Source:", e.Source)
	row("Sheet:", e.Sheet)
	row("Destination:", e.Destination)
	row("Rows:", fmt.Sprint(e.Rows))
	row("Separator:", fmt.Sprintf("%q", e.Separator))
	row("Quoting:", e.Quoting)
	row("Encoding:", e.Encoding)
	row("Started:", e.Started.Local().Format("2006-01-02 15:04:05"))
	row("Duration:", formatDurationShort(e.Duration()))
	if e.Error != "" {
		row("Error:", fmt.Sprintf("%s (%s)", e.Error, e.ErrorKind))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
