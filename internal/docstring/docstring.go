// Package docstring splits documentation comments into an overview and
// structured tags.
//
// Parsing never fails. Malformed tags degrade to plain text and tags that
// are not part of the recognized vocabulary are kept with kind
// model.Unknown so callers can ignore them.
package docstring

import (
	"regexp"
	"strings"

	"github.com/phobologic/ppdoc/internal/model"
)

// Docstring is a parsed documentation comment.
type Docstring struct {
	Overview string
	Tags     []model.Tag
}

var (
	tagLineRe  = regexp.MustCompile(`^@([A-Za-z_!][\w.!]*)(?:\s+(.*))?$`)
	commentRe  = regexp.MustCompile(`^\s*#`)
	blankLines = regexp.MustCompile(`\n{3,}`)
)

var tagKinds = map[string]model.TagKind{
	"summary": model.Summary,
	"param":   model.TagParam,
	"return":  model.Return,
	"raise":   model.Raise,
	"example": model.Example,
	"see":     model.See,
	"since":   model.Since,
	"author":  model.Author,
	"option":  model.Option,
}

// StripComment removes the leading '#' marker (and one following space)
// from each line of a comment block and joins the result.
func StripComment(lines []string) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		loc := commentRe.FindStringIndex(line)
		if loc == nil {
			out[i] = line
			continue
		}
		rest := line[loc[1]:]
		rest = strings.TrimLeft(rest, "#")
		out[i] = strings.TrimPrefix(rest, " ")
	}
	return strings.Join(out, "\n")
}

type pendingTag struct {
	name   string
	first  string
	indent int
	body   []string
}

// Parse splits text into an overview and tags. Tag bodies continue on
// lines indented deeper than the tag line; an unindented text line ends
// the tag and belongs to the overview again.
func Parse(text string) Docstring {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var (
		overview []string
		tags     []model.Tag
		cur      *pendingTag
	)

	flush := func() {
		if cur == nil {
			return
		}
		// Trailing blank lines separate the tag from what follows.
		for len(cur.body) > 0 && strings.TrimSpace(cur.body[len(cur.body)-1]) == "" {
			cur.body = cur.body[:len(cur.body)-1]
			overview = append(overview, "")
		}
		tags = append(tags, buildTag(cur))
		cur = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		indent := indentOf(line)

		if m := tagLineRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			cur = &pendingTag{name: m[1], first: strings.TrimSpace(m[2]), indent: indent}
			continue
		}

		if cur != nil {
			// A stray '@' that is not a tag name is continuation text.
			if trimmed == "" || indent > cur.indent || strings.HasPrefix(trimmed, "@") {
				cur.body = append(cur.body, line)
				continue
			}
			flush()
		}
		overview = append(overview, line)
	}
	flush()

	ov := strings.TrimSpace(dedent(overview))
	ov = blankLines.ReplaceAllString(ov, "\n\n")

	return Docstring{Overview: ov, Tags: tags}
}

func buildTag(p *pendingTag) model.Tag {
	kind, ok := tagKinds[p.name]
	if !ok {
		kind = model.Unknown
	}
	tag := model.Tag{Kind: kind, Raw: p.name}

	body := dedent(p.body)

	if kind == model.Example {
		tag.Name = p.first
		tag.Body = strings.Trim(body, "\n")
		return tag
	}

	text := strings.TrimSpace(joinText(p.first, body))

	switch kind {
	case model.TagParam:
		tag.Types, text = splitTypes(text)
		tag.Subject, text = splitWord(text)
		tag.Subject = strings.TrimPrefix(tag.Subject, "$")
		if len(tag.Types) == 0 {
			tag.Types, text = splitTypes(text)
		}
		tag.Body = text
	case model.Return, model.Raise:
		tag.Types, tag.Body = splitTypes(text)
	case model.See:
		tag.Name, tag.Body = splitWord(text)
	case model.Option:
		tag.Subject, text = splitWord(text)
		tag.Types, text = splitTypes(text)
		tag.Name, text = splitWord(text)
		tag.Body = text
	default:
		tag.Body = text
	}
	return tag
}

func joinText(first, body string) string {
	if body == "" {
		return first
	}
	if first == "" {
		return body
	}
	return first + "\n" + body
}

// splitTypes consumes a leading bracketed type list such as
// "[Array[String], Undef]". Unbalanced brackets leave text untouched.
func splitTypes(text string) ([]string, string) {
	if !strings.HasPrefix(text, "[") {
		return nil, text
	}
	depth := 0
	for i, r := range text {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return splitTopLevel(text[1:i]), strings.TrimSpace(text[i+1:])
			}
		}
	}
	return nil, text
}

func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					out = append(out, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

func splitWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \t\n")
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i+1:])
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// dedent removes the common leading indentation of the non-blank lines.
func dedent(lines []string) string {
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := indentOf(line); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = ""
			continue
		}
		out[i] = strings.TrimRight(line[minIndent:], " \t")
	}
	return strings.Join(out, "\n")
}
