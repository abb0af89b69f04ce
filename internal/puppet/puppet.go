// Package puppet scans Puppet language manifests for class, defined type
// and function declarations.
//
// It is not a full parser: declaration bodies are skipped, parameter
// types and default values are kept as source text, and only top-level
// declarations are reported.
package puppet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phobologic/ppdoc/internal/docstring"
	"github.com/phobologic/ppdoc/internal/lang"
)

// Sentinel errors returned by Parse.
var (
	ErrUnbalanced   = errors.New("unbalanced delimiters")
	ErrUnterminated = errors.New("unterminated literal or comment")
)

// DeclKind is the keyword a declaration was introduced with.
type DeclKind string

const (
	Class    DeclKind = "class"
	Define   DeclKind = "define"
	Function DeclKind = "function"
)

// Param is one entry of a declaration's parameter list.
type Param struct {
	Name         string
	Type         string
	Default      string
	HasDefault   bool
	CapturesRest bool
}

// Decl is a declaration node together with its preceding comment block.
type Decl struct {
	Kind       DeclKind
	Name       string
	Inherits   string
	Params     []Param
	ReturnType string
	// Comment is the '#'-stripped comment block immediately above the
	// declaration keyword.
	Comment string
	Line    int
}

type scanner struct {
	src   string
	lines []string
	pos   int
	// heredocEnd is the offset of the newline ending the last pending
	// heredoc body, or 0. Bodies start on the line after their opener.
	heredocEnd int
}

// Parse returns the top-level declarations in src in source order.
func Parse(src []byte) ([]Decl, error) {
	s := &scanner{src: string(src)}
	s.lines = strings.Split(s.src, "\n")

	var (
		decls []Decl
		depth int
	)

	for s.pos < len(s.src) {
		skipped, err := s.skipOpaque()
		if err != nil {
			return nil, err
		}
		if skipped {
			continue
		}

		c := s.src[s.pos]
		switch {
		case c == '{':
			depth++
			s.pos++
		case c == '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unexpected '}' on line %d", ErrUnbalanced, s.line(s.pos))
			}
			s.pos++
		case isIdentStart(c) && !s.afterIdent():
			start := s.pos
			word := s.readName()
			if depth > 0 {
				continue
			}
			switch DeclKind(word) {
			case Class, Define, Function:
				d, ok, err := s.declaration(DeclKind(word), start)
				if err != nil {
					return nil, err
				}
				if ok {
					decls = append(decls, d)
				}
			}
		default:
			s.pos++
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: %d unclosed '{'", ErrUnbalanced, depth)
	}
	return decls, nil
}

// declaration parses the header after keyword. ok is false when the
// keyword does not start a declaration, e.g. a resource-like class
// declaration `class { 'foo': }`.
func (s *scanner) declaration(kind DeclKind, start int) (Decl, bool, error) {
	s.skipSpace()
	name := s.readName()
	if name == "" {
		return Decl{}, false, nil
	}

	d := Decl{
		Kind: kind,
		Name: strings.TrimPrefix(name, "::"),
		Line: s.line(start),
	}

	s.skipSpace()
	if s.peek(0) == '(' {
		inner, err := s.readBalanced('(', ')')
		if err != nil {
			return Decl{}, false, err
		}
		d.Params = parseParams(inner)
		s.skipSpace()
	}

	if kind == Class && s.hasWord("inherits") {
		s.pos += len("inherits")
		s.skipSpace()
		d.Inherits = strings.TrimPrefix(s.readName(), "::")
		s.skipSpace()
	}

	if kind == Function && strings.HasPrefix(s.src[s.pos:], ">>") {
		s.pos += 2
		typeStart := s.pos
		for s.pos < len(s.src) && s.src[s.pos] != '{' {
			if s.src[s.pos] == '[' {
				if _, err := s.readBalanced('[', ']'); err != nil {
					return Decl{}, false, err
				}
				continue
			}
			s.pos++
		}
		d.ReturnType = lang.CollapseWhitespace(s.src[typeStart:s.pos])
	}

	if s.peek(0) != '{' {
		return Decl{}, false, nil
	}
	if _, err := s.readBalanced('{', '}'); err != nil {
		return Decl{}, false, err
	}

	d.Comment = s.commentAbove(d.Line)
	return d, true, nil
}

// commentAbove collects the contiguous '#' lines directly above line.
func (s *scanner) commentAbove(line int) string {
	end := line - 1 // index of the declaration line
	start := end
	for start > 0 && strings.HasPrefix(strings.TrimSpace(s.lines[start-1]), "#") {
		start--
	}
	if start == end {
		return ""
	}
	return docstring.StripComment(s.lines[start:end])
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) line(pos int) int {
	return strings.Count(s.src[:pos], "\n") + 1
}

func (s *scanner) afterIdent() bool {
	if s.pos == 0 {
		return false
	}
	p := s.src[s.pos-1]
	return isIdentChar(p) || p == '$' || p == ':'
}

func (s *scanner) hasWord(w string) bool {
	if !strings.HasPrefix(s.src[s.pos:], w) {
		return false
	}
	end := s.pos + len(w)
	return end >= len(s.src) || !isIdentChar(s.src[end])
}

// readName reads an identifier, allowing '::' namespace separators.
func (s *scanner) readName() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if isIdentChar(c) {
			s.pos++
			continue
		}
		if c == ':' && s.peek(1) == ':' {
			s.pos += 2
			continue
		}
		break
	}
	return s.src[start:s.pos]
}

// skipSpace skips whitespace and comments.
func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case s.skipHeredocBody():
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			s.pos++
		case c == '#' || (c == '/' && s.peek(1) == '*'):
			if s.skipComment() != nil {
				return
			}
		default:
			return
		}
	}
}

// skipOpaque skips a comment, string, heredoc or regex literal starting
// at the current position, and reports whether it did.
func (s *scanner) skipOpaque() (bool, error) {
	c := s.src[s.pos]
	switch {
	case s.skipHeredocBody():
		return true, nil
	case c == '#' || (c == '/' && s.peek(1) == '*'):
		return true, s.skipComment()
	case c == '\'' || c == '"':
		return true, s.skipString()
	case c == '@' && s.peek(1) == '(':
		return s.skipHeredoc()
	case c == '/' && regexMayStart(s.src, s.pos):
		if end := regexEnd(s.src, s.pos); end >= 0 {
			s.pos = end + 1
			return true, nil
		}
	}
	return false, nil
}

// skipHeredocBody jumps over pending heredoc bodies when the scanner
// reaches the end of the line that opened them.
func (s *scanner) skipHeredocBody() bool {
	if s.src[s.pos] != '\n' || s.heredocEnd <= s.pos {
		return false
	}
	s.pos = s.heredocEnd
	s.heredocEnd = 0
	return true
}

// skipHeredoc consumes a @(TAG) opener and finds the line ending its
// body. An '@(' that does not close on the same line is not a heredoc.
func (s *scanner) skipHeredoc() (bool, error) {
	open := s.pos
	spec, _, ok := strings.Cut(s.src[open+2:], ")")
	if !ok || strings.Contains(spec, "\n") {
		return false, nil
	}
	tag := heredocTag(spec)
	if tag == "" {
		return false, nil
	}

	start := s.heredocEnd + 1
	if s.heredocEnd <= open {
		nl := strings.IndexByte(s.src[open:], '\n')
		if nl < 0 {
			return false, fmt.Errorf("%w: heredoc opened on line %d", ErrUnterminated, s.line(open))
		}
		start = open + nl + 1
	}

	for start < len(s.src) {
		end := strings.IndexByte(s.src[start:], '\n')
		if end < 0 {
			end = len(s.src)
		} else {
			end += start
		}
		if isHeredocEnd(s.src[start:end], tag) {
			s.heredocEnd = end
			s.pos = open + len("@(") + len(spec) + 1
			return true, nil
		}
		start = end + 1
	}
	return false, fmt.Errorf("%w: heredoc %q opened on line %d", ErrUnterminated, tag, s.line(open))
}

// heredocTag returns the end tag of a heredoc opener such as
// `"END":json/L`.
func heredocTag(spec string) string {
	if i := strings.IndexAny(spec, ":/"); i >= 0 {
		spec = spec[:i]
	}
	return strings.Trim(strings.TrimSpace(spec), `"`)
}

// isHeredocEnd matches an end line: the tag, optionally preceded by '|'
// for indentation and '-' for trimming the final newline.
func isHeredocEnd(line, tag string) bool {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimPrefix(line, "|"))
	line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
	return line == tag
}

var regexKeywords = map[string]bool{
	"and": true, "case": true, "elsif": true, "if": true,
	"in": true, "node": true, "or": true, "unless": true,
}

// regexMayStart reports whether the '/' at text[i] can open a regex
// literal instead of dividing.
func regexMayStart(text string, i int) bool {
	j := i - 1
	for j >= 0 && strings.IndexByte(" \t\r\n", text[j]) >= 0 {
		j--
	}
	if j < 0 {
		return true
	}
	c := text[j]
	if strings.IndexByte("~=([{},;!|&>?", c) >= 0 {
		return true
	}
	if !isIdentChar(c) {
		return false
	}
	end := j + 1
	for j >= 0 && isIdentChar(text[j]) {
		j--
	}
	if j >= 0 && (text[j] == '$' || text[j] == ':') {
		return false
	}
	return regexKeywords[text[j+1:end]]
}

// regexEnd returns the index of the slash closing the regex opened at
// text[i], or -1 when the line ends first.
func regexEnd(text string, i int) int {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '\n':
			return -1
		case '/':
			return j
		}
	}
	return -1
}

func (s *scanner) skipComment() error {
	if s.src[s.pos] == '#' {
		if i := strings.IndexByte(s.src[s.pos:], '\n'); i >= 0 {
			s.pos += i
		} else {
			s.pos = len(s.src)
		}
		return nil
	}
	i := strings.Index(s.src[s.pos+2:], "*/")
	if i < 0 {
		return fmt.Errorf("%w: comment opened on line %d", ErrUnterminated, s.line(s.pos))
	}
	s.pos += i + 4
	return nil
}

func (s *scanner) skipString() error {
	quote := s.src[s.pos]
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.pos += 2
			continue
		case quote:
			s.pos++
			return nil
		}
		s.pos++
	}
	return fmt.Errorf("%w: string opened on line %d", ErrUnterminated, s.line(start))
}

// readBalanced consumes a delimited group starting at the opening
// delimiter and returns its inner text.
func (s *scanner) readBalanced(open, closing byte) (string, error) {
	start := s.pos
	depth := 0
	for s.pos < len(s.src) {
		skipped, err := s.skipOpaque()
		if err != nil {
			return "", err
		}
		if skipped {
			continue
		}

		c := s.src[s.pos]
		switch {
		case c == open:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				s.pos++
				return s.src[start+1 : s.pos-1], nil
			}
		}
		s.pos++
	}
	return "", fmt.Errorf("%w: %q opened on line %d", ErrUnbalanced, open, s.line(start))
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
