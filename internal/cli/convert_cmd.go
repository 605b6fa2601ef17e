// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// convert_cmd.go - The convert command.
//
// Usage:
//
//	sheetcsv convert <file> [--sheet NAME]... [--all-sheets] [-o PATH|-]
//	                        [--output-dir DIR] [--force] [--save-settings]
//	                        [format flags]
//
// Sheets export one after another through the same task path the TUI uses,
// so every run lands in the history store.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/export"
	"github.com/jeranaias/sheetcsv-tui/internal/source"
	"github.com/jeranaias/sheetcsv-tui/internal/tasks"
)

// stdoutDestination is the destination name used for -o -.
const stdoutDestination = "-"

// plannedExport pairs a sheet with where it will be written.
type plannedExport struct {
	sheet       string
	destination string
}

// HandleConvert handles the "convert" command.
func HandleConvert(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw, "all-sheets", "force", "f", "save-settings")
	known := append([]string{
		"sheet", "s", "all-sheets", "output", "o", "output-dir",
		"force", "f", "save-settings",
	}, formatFlagNames...)
	if err := checkFlags(p, known...); err != nil {
		return err
	}

	_, opts, err := resolveFormat(env.Config, p)
	if err != nil {
		return err
	}

	wb, path, err := openWorkbook(p, "convert")
	if err != nil {
		return err
	}
	defer wb.Close()

	sheets, err := selectSheets(wb, p)
	if err != nil {
		return err
	}

	plan, err := planExports(path, sheets, p)
	if err != nil {
		return err
	}
	toStdout := len(plan) == 1 && plan[0].destination == stdoutDestination
	if toStdout && args.JSON {
		return NewUsageError("--output", stdoutDestination, "cannot be combined with --json")
	}
	if err := confirmOverwrite(env, plan, p.BoolFlag("force", "f"), args.JSON); err != nil {
		return err
	}

	// Human output moves to stderr when the data itself goes to stdout.
	report := env.Stdout
	if toStdout {
		report = env.Stderr
	}

	progress := newProgressPrinter(env.Stderr, env.Progress && !args.JSON && !args.Quiet)
	data := ConvertData{Source: path}
	var firstErr error
	for _, item := range plan {
		out, err := convertSheet(ctx, env, wb, path, item, opts, progress)
		progress.Clear()
		if out != nil {
			data.Outputs = append(data.Outputs, *out)
			// A lone failure is reported once, by the caller's error display.
			if !args.JSON && (err == nil || len(plan) > 1) {
				printConvertOutput(report, args.Quiet, *out)
			}
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if csvfmt.IsCancelled(err) {
				break
			}
		}
	}
	if firstErr != nil {
		return firstErr
	}

	if p.BoolFlag("save-settings") {
		saved := env.Config.Clone()
		saved.ApplyFormatOptions(opts)
		saved.Source.LastFile = path
		saved.Source.Sheet = plan[0].sheet
		if err := env.save(saved); err != nil {
			return &ConfigError{Err: err}
		}
		*env.Config = *saved
		printf(report, args.Quiet, "%s\n", DimStyle.Render("Settings saved."))
	}
	if args.JSON {
		return NewJSONResponse("convert", data).PrintTo(env.Stdout)
	}
	return nil
}

// selectSheets returns the sheets named by --sheet, every sheet with
// --all-sheets, or the first sheet.
func selectSheets(wb *source.Workbook, p *ArgParser) ([]string, error) {
	names := p.Flags("sheet", "s")
	all := p.BoolFlag("all-sheets")
	switch {
	case all && len(names) > 0:
		return nil, NewUsageError("--all-sheets", "", "cannot be combined with --sheet")
	case all:
		names = wb.Sheets()
	case len(names) == 0:
		sheets := wb.Sheets()
		if len(sheets) == 0 {
			return nil, &csvfmt.SourceReadError{Path: wb.Path(), Reason: csvfmt.SourceUnreadable, Err: fmt.Errorf("workbook has no sheets")}
		}
		names = sheets[:1]
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !wb.HasSheet(name) {
			return nil, &csvfmt.SourceReadError{Path: wb.Path(), Sheet: name, Reason: csvfmt.SourceMissingSheet}
		}
		out = append(out, name)
	}
	return out, nil
}

// planExports decides the destination of every sheet.
func planExports(path string, sheets []string, p *ArgParser) ([]plannedExport, error) {
	output := p.Flag("output", "o")
	dir := p.Flag("output-dir")
	if output != "" && len(sheets) > 1 {
		return nil, NewUsageError("--output", output, "needs exactly one sheet; use --output-dir for several")
	}
	if output != "" && dir != "" {
		return nil, NewUsageError("--output", output, "cannot be combined with --output-dir")
	}
	if output != "" {
		if output != stdoutDestination {
			output = absPath(output)
		}
		return []plannedExport{{sheet: sheets[0], destination: output}}, nil
	}

	if dir == "" {
		dir = filepath.Dir(path)
	} else {
		dir = absPath(dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &csvfmt.SinkWriteError{Path: dir, Op: "mkdir", Err: err}
		}
	}
	perSheet := len(sheets) > 1
	plan := make([]plannedExport, 0, len(sheets))
	for _, name := range sheets {
		plan = append(plan, plannedExport{
			sheet:       name,
			destination: export.DestinationIn(dir, path, name, perSheet),
		})
	}
	return plan, nil
}

// confirmOverwrite asks once for every destination that already exists.
func confirmOverwrite(env *Env, plan []plannedExport, force, jsonMode bool) error {
	var existing []string
	for _, item := range plan {
		if item.destination != stdoutDestination && fileExists(item.destination) {
			existing = append(existing, item.destination)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	prompt := fmt.Sprintf("Overwrite %s?", existing[0])
	if len(existing) > 1 {
		prompt = fmt.Sprintf("Overwrite %d existing files (%s, ...)?", len(existing), filepath.Base(existing[0]))
	}
	ok, err := RequireConfirmation(env, prompt, ConfirmationOptions{Forced: force, JSONMode: jsonMode})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("overwrite declined: %w", context.Canceled)
	}
	return nil
}

// convertSheet reads and exports one sheet, then records the run.
func convertSheet(ctx context.Context, env *Env, wb *source.Workbook, path string, item plannedExport, opts csvfmt.Options, progress *progressPrinter) (*ConvertOutput, error) {
	sheet, err := wb.ReadSheet(item.sheet, 0)
	if err != nil {
		return nil, err
	}

	job := export.Job{
		Sheet:       sheet,
		Options:     opts,
		Destination: item.destination,
		Logger:      env.logger(),
	}
	var buf *export.BufferSink
	if item.destination == stdoutDestination {
		buf = export.NewBufferSink(stdoutDestination)
		job.Sink = buf.Factory()
	}

	task := tasks.NewTask(path, job)
	res := tasks.Execute(ctx, task, progress.Observe)

	if env.History != nil {
		// The run may have been interrupted; recording it must not be.
		if err := env.History.Record(context.WithoutCancel(ctx), tasks.EntryFor(task, res)); err != nil {
			env.logger().Warn("failed to record history", "run_id", res.RunID, "error", err)
		}
	}

	out := &ConvertOutput{
		RunID:       res.RunID,
		Sheet:       item.sheet,
		Destination: item.destination,
		Status:      string(res.Status),
		Rows:        res.Rows,
		DurationMs:  res.Duration().Milliseconds(),
	}
	switch res.Status {
	case export.StatusCompleted:
		if buf != nil {
			if _, err := env.Stdout.Write(buf.Bytes()); err != nil {
				return out, &csvfmt.SinkWriteError{Path: stdoutDestination, Op: "write", Err: err}
			}
		}
		return out, nil
	case export.StatusCancelled:
		if err := ctx.Err(); err != nil {
			return out, err
		}
		return out, context.Canceled
	default:
		out.Error = res.Err.Error()
		out.ErrorKind = csvfmt.KindOf(res.Err).String()
		return out, res.Err
	}
}

func printConvertOutput(w io.Writer, quiet bool, out ConvertOutput) {
	if quiet && out.Status == string(export.StatusCompleted) {
		return
	}
	switch export.Status(out.Status) {
	case export.StatusCompleted:
		fmt.Fprintf(w, "%s %s -> %s (%s, %s)\n",
			RenderStatus(out.Status), out.Sheet, out.Destination,
			rowsLabel(out.Rows), formatDurationShort(time.Duration(out.DurationMs)*time.Millisecond))
	case export.StatusCancelled:
		fmt.Fprintf(w, "%s %s: stopped after %s; nothing was written\n",
			RenderStatus(out.Status), out.Sheet, rowsLabel(out.Rows))
	default:
		fmt.Fprintf(w, "%s %s: %s\n", RenderStatus(out.Status), out.Sheet, strings.TrimSpace(out.Error))
	}
}

func rowsLabel(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
