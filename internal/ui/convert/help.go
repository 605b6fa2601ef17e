// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpIntro = `# sheetcsv

Pick a workbook, choose how the text should look, and export a sheet.
The preview always uses the settings on screen, saved or not.

## Formatting

- **Separator** is one of the presets or a custom string such as ` + "`||`" + `.
- **Quoting** wraps text cells (` + "`text`" + `), every cell (` + "`all`" + `), or nothing (` + "`none`" + `).
- **Encoding** must be able to represent every character; the preview flags the first one that cannot be encoded.
- **Significant figs** takes ` + "`column=digits`" + ` pairs separated by commas.

Settings are written to ~/.sheetcsv/config.toml when you quit.
`

// helpMarkdown lists the key bindings after the introduction.
func (m Model) helpMarkdown() string {
	var b strings.Builder
	b.WriteString(helpIntro)
	b.WriteString("\n## Keys\n\n| Key | Action |\n| --- | --- |\n")
	for _, group := range m.keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\nPress `?` or `Esc` to close.\n")
	return b.String()
}

// renderHelp renders the help text into the help viewport. Rendering falls
// back to plain markdown if glamour cannot build a renderer.
func (m *Model) renderHelp() {
	md := m.helpMarkdown()

	style := "light"
	if m.theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(m.helpView.Width-4, 20)),
	)
	if err == nil {
		if out, err := r.Render(md); err == nil {
			md = out
		}
	}
	m.helpView.SetContent(md)
	m.helpView.GotoTop()
}
