package puppet

import (
	"strings"

	"github.com/phobologic/ppdoc/internal/lang"
)

// parseParams splits the inner text of a parameter list into parameters.
// Entries without a $variable are dropped.
func parseParams(text string) []Param {
	var params []Param
	for _, part := range splitParams(stripComments(text)) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dollar := topLevelIndex(part, '$')
		if dollar < 0 {
			continue
		}

		p := Param{}
		typ := strings.TrimSpace(part[:dollar])
		if strings.HasSuffix(typ, "*") {
			p.CapturesRest = true
			typ = strings.TrimSpace(strings.TrimSuffix(typ, "*"))
		}
		p.Type = lang.CollapseWhitespace(typ)

		rest := part[dollar+1:]
		end := 0
		for end < len(rest) && isIdentChar(rest[end]) {
			end++
		}
		p.Name = rest[:end]
		rest = strings.TrimSpace(rest[end:])
		if strings.HasPrefix(rest, "=") {
			p.Default = strings.TrimSpace(rest[1:])
			p.HasDefault = true
		}
		params = append(params, p)
	}
	return params
}

// splitParams splits on commas that are not nested in brackets, strings
// or regex literals.
func splitParams(text string) []string {
	var (
		parts []string
		depth int
		start int
		quote byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '/':
			i = skipRegexAt(text, i)
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}

// topLevelIndex returns the index of the first b outside brackets,
// strings and regex literals, or -1.
func topLevelIndex(text string, b byte) int {
	var (
		depth int
		quote byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '/':
			i = skipRegexAt(text, i)
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case b:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stripComments removes '#' line comments that are not inside strings or
// regex literals.
func stripComments(text string) string {
	var (
		b     strings.Builder
		quote byte
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			b.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(text) {
					i++
					b.WriteByte(text[i])
				}
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '/':
			end := skipRegexAt(text, i)
			b.WriteString(text[i : end+1])
			i = end
			continue
		case '#':
			for i < len(text) && text[i] != '\n' {
				i++
			}
			if i < len(text) {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// skipRegexAt returns the index of the slash closing a regex literal
// opened at text[i], or i when the slash does not open one.
func skipRegexAt(text string, i int) int {
	if !regexMayStart(text, i) {
		return i
	}
	if end := regexEnd(text, i); end >= 0 {
		return end
	}
	return i
}
