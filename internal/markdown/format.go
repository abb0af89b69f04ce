package markdown

import (
	"strings"

	"github.com/phobologic/ppdoc/internal/model"
)

// signature formats a function call signature in Puppet syntax.
func signature(name string, params []model.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		typ := paramType(p)
		sigil := "$"
		switch p.Modifier {
		case model.Repeated:
			sigil = "*$"
		case model.Block:
			sigil = "&$"
		}

		s := sigil + p.Name
		if typ != "" {
			s = typ + " " + s
		}
		if p.HasDefault {
			s += " = " + p.Default
		}
		parts = append(parts, s)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// code wraps s in a code span long enough not to clash with backticks
// inside it.
func code(s string) string {
	if s == "" {
		return ""
	}
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if len(fence) > 1 || strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

// fenced returns body as a fenced code block.
func fenced(info, body string) string {
	fence := "```"
	for strings.Contains(body, fence) {
		fence += "`"
	}
	return fence + info + "\n" + body + "\n" + fence
}

func table(header []string, rows [][]string) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(escapeCell(c))
			b.WriteString(" |")
		}
	}

	writeRow(header)
	b.WriteString("\n|")
	for range header {
		b.WriteString("---|")
	}
	for _, row := range rows {
		b.WriteString("\n")
		writeRow(row)
	}
	return b.String()
}

// escapeCell keeps a value on one table row.
func escapeCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// paramType is the declared type, wrapped in Optional[...] for an
// optional parameter without a default.
func paramType(p model.Param) string {
	typ := p.Type
	if p.Modifier == model.Optional && !p.HasDefault && typ != "" && !strings.HasPrefix(typ, "Optional[") {
		typ = "Optional[" + typ + "]"
	}
	return typ
}

func typeCell(p model.Param) string {
	return code(paramType(p))
}

// defaultCell is empty when the parameter has no default.
func defaultCell(p model.Param) string {
	if !p.HasDefault {
		return ""
	}
	return code(p.Default)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
