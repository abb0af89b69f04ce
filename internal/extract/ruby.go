package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ppdoc/internal/docstring"
	"github.com/phobologic/ppdoc/internal/lang"
)

// rubySource couples a parsed tree with its source for the helpers below.
type rubySource struct {
	src   []byte
	lines []string
	root  *sitter.Node
}

func newRubySource(src []byte, root *sitter.Node) *rubySource {
	return &rubySource{
		src:   src,
		lines: strings.Split(string(src), "\n"),
		root:  root,
	}
}

func (rs *rubySource) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return lang.NodeText(n, rs.src)
}

// line returns the 1-based start line of n.
func (rs *rubySource) line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// commentAbove returns the '#'-stripped comment lines directly above n.
func (rs *rubySource) commentAbove(n *sitter.Node) string {
	end := int(n.StartPoint().Row)
	start := end
	for start > 0 && strings.HasPrefix(strings.TrimSpace(rs.lines[start-1]), "#") {
		start--
	}
	if start == end {
		return ""
	}
	return docstring.StripComment(rs.lines[start:end])
}

// callName returns the method name of a call node, or the identifier
// text for a bare identifier statement such as `block_param`.
func (rs *rubySource) callName(n *sitter.Node) string {
	switch n.Type() {
	case "call":
		return rs.text(n.ChildByFieldName("method"))
	case "identifier":
		return rs.text(n)
	}
	return ""
}

// args returns the argument nodes of a call, skipping punctuation,
// comments and heredoc bodies.
func (rs *rubySource) args(call *sitter.Node) []*sitter.Node {
	if call.Type() != "call" {
		return nil
	}
	list := call.ChildByFieldName("arguments")
	if list == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(list.NamedChildCount()); i++ {
		c := list.NamedChild(i)
		switch c.Type() {
		case "comment", "heredoc_body":
			continue
		}
		out = append(out, c)
	}
	return out
}

// pairs returns the key/value pairs among args, flattening a trailing
// hash literal.
func (rs *rubySource) pairs(args []*sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, a := range args {
		switch a.Type() {
		case "pair":
			out = append(out, a)
		case "hash":
			out = append(out, rs.hashPairs(a)...)
		}
	}
	return out
}

func (rs *rubySource) hashPairs(h *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(h.NamedChildCount()); i++ {
		if c := h.NamedChild(i); c.Type() == "pair" {
			out = append(out, c)
		}
	}
	return out
}

// pairKey returns the key of a pair as a bare name: `name:`, `:name`
// and 'name' all yield "name".
func (rs *rubySource) pairKey(p *sitter.Node) string {
	k := p.ChildByFieldName("key")
	if k == nil {
		return ""
	}
	return rs.value(k)
}

func (rs *rubySource) pairValue(p *sitter.Node) *sitter.Node {
	return p.ChildByFieldName("value")
}

// value returns a literal's value: symbols lose their colon, strings
// their quotes and heredocs resolve to their body. Other nodes are
// returned as source text.
func (rs *rubySource) value(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "simple_symbol":
		return strings.TrimPrefix(rs.text(n), ":")
	case "hash_key_symbol", "identifier", "constant":
		return rs.text(n)
	case "delimited_symbol":
		return rs.stringContent(n, ":\"'")
	case "string":
		return rs.stringContent(n, "\"'")
	case "heredoc_beginning":
		return rs.heredoc(n)
	}
	return rs.text(n)
}

func (rs *rubySource) stringContent(n *sitter.Node, quotes string) string {
	var (
		b     strings.Builder
		found bool
	)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "string_content", "escape_sequence", "interpolation":
			b.WriteString(rs.text(c))
			found = true
		}
	}
	if found {
		return b.String()
	}
	return strings.Trim(rs.text(n), quotes)
}

// heredoc resolves a heredoc opener to the text of its body. Heredoc
// bodies are attached after the opener's line, so the first body that
// starts after the opener is the right one.
func (rs *rubySource) heredoc(begin *sitter.Node) string {
	body := rs.findAfter(rs.root, "heredoc_body", begin.EndByte())
	if body == nil {
		return ""
	}

	end := body.EndByte()
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if c := body.NamedChild(i); c.Type() == "heredoc_end" {
			end = c.StartByte()
		}
	}
	text := string(rs.src[body.StartByte():end])
	text = strings.TrimPrefix(text, "\n")

	lines := strings.Split(strings.TrimRight(text, " \t\n"), "\n")
	if strings.HasPrefix(rs.text(begin), "<<~") {
		return dedentLines(lines)
	}
	return strings.Join(lines, "\n")
}

// findAfter returns the first node of type typ (in document order) that
// starts at or after offset.
func (rs *rubySource) findAfter(n *sitter.Node, typ string, offset uint32) *sitter.Node {
	if n.EndByte() < offset {
		return nil
	}
	if n.Type() == typ && n.StartByte() >= offset {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := rs.findAfter(n.Child(i), typ, offset); found != nil {
			return found
		}
	}
	return nil
}

// statements returns the statements of a do/brace block, descending
// into body wrappers that differ between grammar versions.
func (rs *rubySource) statements(block *sitter.Node) []*sitter.Node {
	if block == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(block.NamedChildCount()); i++ {
		c := block.NamedChild(i)
		switch c.Type() {
		case "body_statement", "block_body":
			out = append(out, rs.statements(c)...)
		case "comment", "heredoc_body", "block_parameters":
		default:
			out = append(out, c)
		}
	}
	return out
}

// blockOf returns the block attached to a call, if any.
func blockOf(call *sitter.Node) *sitter.Node {
	if call.Type() != "call" {
		return nil
	}
	return call.ChildByFieldName("block")
}

// symbolArg returns the value of the first argument of a call.
func (rs *rubySource) symbolArg(call *sitter.Node) string {
	args := rs.args(call)
	if len(args) == 0 {
		return ""
	}
	return rs.value(args[0])
}

// textArg returns the first string/heredoc argument of a call such as
// `desc 'text'`.
func (rs *rubySource) textArg(call *sitter.Node) string {
	for _, a := range rs.args(call) {
		switch a.Type() {
		case "string", "heredoc_beginning":
			return rs.value(a)
		}
	}
	return ""
}

func dedentLines(lines []string) string {
	minIndent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= minIndent {
			out[i] = l[minIndent:]
		}
	}
	return strings.Join(out, "\n")
}
