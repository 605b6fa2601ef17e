// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// preview_cmd.go - The preview and sheets commands.
//
// Usage:
//
//	sheetcsv preview <file> [--sheet NAME] [--rows N] [format flags]
//	sheetcsv sheets <file> [--password PW]

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/sheetcsv-tui/internal/csvfmt"
	"github.com/jeranaias/sheetcsv-tui/internal/ui/styles"
)

// HandlePreview handles the "preview" command. It prints the header and the
// first rows exactly as convert would write them.
func HandlePreview(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	if err := checkFlags(p, append([]string{"sheet", "s", "rows", "n"}, formatFlagNames...)...); err != nil {
		return err
	}

	_, opts, err := resolveFormat(env.Config, p)
	if err != nil {
		return err
	}

	limit := csvfmt.PreviewRowLimit
	if v := p.Flag("rows", "n"); v != "" {
		n, err := ParseIntWithValidation(v, "rows")
		if err != nil {
			return err
		}
		if n < 1 {
			return NewUsageError("--rows", v, "must be at least 1")
		}
		limit = n
	}

	wb, path, err := openWorkbook(p, "preview")
	if err != nil {
		return err
	}
	defer wb.Close()

	name := p.Flag("sheet", "s")
	if name == "" {
		if sheets := wb.Sheets(); len(sheets) > 0 {
			name = sheets[0]
		}
	}
	sheet, err := wb.ReadSheet(name, limit)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	total, err := wb.CountRows(name)
	if err != nil {
		return err
	}

	res, err := csvfmt.PreviewN(sheet, opts, limit)
	if err != nil {
		return err
	}
	res.TotalRows = total

	if args.JSON {
		data := PreviewData{
			Source:    path,
			Sheet:     name,
			Header:    res.Header,
			Lines:     res.Lines,
			TotalRows: res.TotalRows,
		}
		if res.Problem != nil {
			data.Problem = res.Problem.Error()
		}
		return NewJSONResponse("preview", data).PrintTo(env.Stdout)
	}

	fmt.Fprintln(env.Stdout, res.Text())
	if !args.Quiet {
		fmt.Fprintf(env.Stderr, "%s\n", DimStyle.Render(fmt.Sprintf("%s: showing %d of %s", name, len(res.Lines), rowsLabel(res.TotalRows))))
	}
	if res.Problem != nil {
		fmt.Fprintln(env.Stderr, styles.RenderWarning(res.Problem.Error()))
	}
	return nil
}

// HandleSheets handles the "sheets" command.
func HandleSheets(ctx context.Context, env *Env, args Args) error {
	p := NewArgParser(args.Raw)
	if err := checkFlags(p, "password"); err != nil {
		return err
	}
	wb, path, err := openWorkbook(p, "sheets")
	if err != nil {
		return err
	}
	defer wb.Close()

	sheets := wb.Sheets()
	if args.JSON {
		return NewJSONResponse("sheets", SheetsData{Source: path, Sheets: sheets}).PrintTo(env.Stdout)
	}
	for _, name := range sheets {
		fmt.Fprintln(env.Stdout, name)
	}
	return nil
}
