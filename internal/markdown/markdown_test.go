package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/ppdoc/internal/extract"
	"github.com/phobologic/ppdoc/internal/model"
	"github.com/phobologic/ppdoc/internal/registry"
)

// fixtureRegistry extracts the shared declaration fixtures.
func fixtureRegistry(t *testing.T, files ...string) *registry.Registry {
	t.Helper()
	x, err := extract.New(nil)
	require.NoError(t, err)
	for _, f := range files {
		src, err := os.ReadFile(filepath.Join("..", "extract", "testdata", f))
		require.NoError(t, err)
		x.Unit(f, src)
	}
	reg, err := x.Finish()
	require.NoError(t, err)
	return reg
}

func allFixtures(t *testing.T) *registry.Registry {
	t.Helper()
	return fixtureRegistry(t, "init.pp", "func.pp", "functions.rb", "types.rb", "extras.rb")
}

func newRegistry(t *testing.T, entities ...*model.Entity) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, e := range entities {
		require.NoError(t, reg.Insert(e))
	}
	return reg
}

// sectionOf returns the part of doc documenting the entity with anchor.
func sectionOf(t *testing.T, doc, anchor string) string {
	t.Helper()
	marker := `<a id="` + anchor + `"></a>`
	start := strings.Index(doc, marker)
	require.GreaterOrEqual(t, start, 0, "anchor %q not rendered", anchor)
	rest := doc[start+len(marker):]
	if end := strings.Index(rest, `<a id="`); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

// rowOf returns the table row whose first cell is the code span name.
func rowOf(t *testing.T, section, name string) string {
	t.Helper()
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "| `"+name+"` |") {
			return line
		}
	}
	t.Fatalf("no table row for %q", name)
	return ""
}

type heading struct {
	Level int
	Text  string
}

func parse(doc string) ast.Node {
	return gm.Parse([]byte(doc), gmparser.NewWithExtensions(gmparser.CommonExtensions))
}

func headings(doc string) []heading {
	var out []heading
	ast.WalkFunc(parse(doc), func(node ast.Node, entering bool) ast.WalkStatus {
		if h, ok := node.(*ast.Heading); ok && entering {
			out = append(out, heading{Level: h.Level, Text: nodeText(h)})
		}
		return ast.GoToNext
	})
	return out
}

func nodeText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Literal)
		case *ast.Code:
			b.Write(v.Literal)
		}
		return ast.GoToNext
	})
	return b.String()
}

func TestRenderEmptyRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "# Reference\n", Render(registry.New(), Options{}))
	assert.Equal(t, "# Modules\n", Render(registry.New(), Options{Title: "Modules"}))
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	reg := allFixtures(t)
	first := Render(reg, Options{})
	second := Render(reg, Options{})
	assert.Equal(t, first, second)
	assert.Equal(t, first, Render(allFixtures(t), Options{}))
}

func TestRenderStructure(t *testing.T) {
	t.Parallel()

	doc := Render(allFixtures(t), Options{})
	assert.Equal(t, []heading{
		{1, "Reference"},
		{2, "Table of Contents"},
		{2, "Classes"},
		{3, "klass"},
		{2, "Defined types"},
		{3, "klass::dt"},
		{2, "Functions"},
		{3, "func"},
		{3, "func4x"},
		{4, "Overloads"},
		{5, "func4x(Integer $param1, Any $param2, Optional[Array[String]] $param3)"},
		{5, "func4x(Boolean $param, Callable &$block)"},
		{3, "func4x_1"},
		{2, "Resource types"},
		{3, "database"},
		{3, "apt_key"},
		{3, "orphan"},
		{2, "Providers"},
		{3, "linux"},
	}, headings(doc))
}

func TestRenderTOCLinksResolve(t *testing.T) {
	t.Parallel()

	doc := Render(allFixtures(t), Options{})
	var links []string
	ast.WalkFunc(parse(doc), func(node ast.Node, entering bool) ast.WalkStatus {
		if link, ok := node.(*ast.Link); ok && entering && strings.HasPrefix(string(link.Destination), "#") {
			links = append(links, string(link.Destination))
		}
		return ast.GoToNext
	})

	// One per TOC entry plus the provider's link to its type.
	require.Len(t, links, 10)
	for _, dest := range links {
		assert.Contains(t, doc, `<a id="`+dest[1:]+`"></a>`)
	}

	assert.Contains(t, doc, "* [`klass`](#klass): A simple class.")
	assert.Contains(t, doc, "* [`klass::dt`](#klass-dt): A simple defined type.")
	assert.Contains(t, doc, "* [`func4x`](#func4x): An overview for the first overload.")
	assert.Contains(t, doc, "* [`apt_key`](#apt-key): Example resource type using the new API.")
	assert.Contains(t, doc, "* [`linux`](#database-linux): An example provider on Linux.")
	assert.Contains(t, doc, "* [`orphan`](#orphan)\n")
}

func TestRenderClassScenario(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "init.pp"), Options{})
	s := sectionOf(t, doc, "klass")

	assert.Contains(t, s, "### klass\n")
	assert.Contains(t, s, "\n\nA simple class.\n\nAn overview for a simple class.\n\n")
	assert.Contains(t, s, "Inherits from: `foo::bar`")
	assert.Contains(t, s, "Since: 1.0.0")
	assert.Contains(t, s, "See also:\n* www.puppet.com")
	assert.Contains(t, s, "_This is an example_\n\n```puppet\nclass { 'klass':\n  param1 => 1,\n  param3 => 'foo',\n}\n```")
	assert.Equal(t, 1, strings.Count(s, "```puppet"))

	assert.Contains(t, s, "| Name | Type | Description | Default |\n|---|---|---|---|\n"+
		"| `param1` | `Integer` | First param. | `1` |\n"+
		"| `param2` |  | Second param. |  |\n"+
		"| `param3` | `String` | Third param. | `'hi'` |")
	assert.Contains(t, s, "**Options**\n\n* `opts` `:foo`: bar")
	assert.Contains(t, s, "**Raises**\n\n* Raises: SomeError")
	assert.Contains(t, s, "Author: eputnam")
	assert.NotContains(t, s, "Returns:")

	// Fixed field order.
	order := []string{"A simple class.", "Inherits from:", "Since:", "See also:", "**Examples**", "**Parameters**", "**Options**", "**Raises**", "Author:"}
	last := -1
	for _, marker := range order {
		i := strings.Index(s, marker)
		require.Greater(t, i, last, marker)
		last = i
	}
}

func TestRenderDefinedTypeReturnTag(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "init.pp"), Options{})
	s := sectionOf(t, doc, "klass-dt")
	assert.Contains(t, s, "Returns: shouldn't return squat")
	assert.Contains(t, s, "Since: 1.1.0")
	assert.Contains(t, s, "| `param2` |  | Second param. |  |")
	assert.NotContains(t, s, "Inherits from")
}

func TestRenderPuppetFunction(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "func.pp"), Options{})
	s := sectionOf(t, doc, "func")
	assert.Contains(t, s, "`func(Integer $param1, Any $param2, String $param3 = hi)`")
	assert.Contains(t, s, "| `param3` | `String` | Third param. | `hi` |")
	assert.Contains(t, s, "Returns: `Undef` Returns nothing.")
}

func TestRenderOverloads(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "functions.rb"), Options{})
	s := sectionOf(t, doc, "func4x")

	assert.NotContains(t, s, "An example 4.x function.")
	assert.Equal(t, 1, strings.Count(s, "#### Overloads"))
	assert.Equal(t, 2, strings.Count(s, "\n##### "))

	first := strings.Index(s, "##### `func4x(Integer $param1, Any $param2, Optional[Array[String]] $param3)`")
	second := strings.Index(s, "##### `func4x(Boolean $param, Callable &$block)`")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)

	one, two := s[first:second], s[second:]
	assert.Contains(t, one, "An overview for the first overload.")
	assert.Contains(t, one, "| `param3` | `Optional[Array[String]]` | The third parameter. |  |")
	assert.Contains(t, one, "Returns: `Undef` Returns nothing.")
	assert.Contains(t, one, "* Raises: SomeError")
	assert.Contains(t, two, "| `block` | `Callable` | The block parameter. |  |")
	assert.Contains(t, two, "Returns: `String` Returns a string.")
}

func TestRenderSingleOverloadFlattened(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "functions.rb"), Options{})
	s := sectionOf(t, doc, "func4x-1")

	assert.NotContains(t, s, "Overloads")
	assert.NotContains(t, s, "#####")
	assert.Contains(t, s, "`func4x_1(Integer $param1)`")
	assert.Contains(t, s, "| `param1` | `Integer` | The first parameter. |  |")
	assert.Contains(t, s, "Returns: `Undef` Returns nothing.")
}

func TestRenderResourceTypes(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "types.rb"), Options{})

	s := sectionOf(t, doc, "apt-key")
	assert.Contains(t, s, "| Name | Type | Behaviour | Description | Default |")
	assert.Equal(t, "| `ensure` | `Enum[present, absent]` | property | Whether this apt key should be present or absent on the target system. |  |", rowOf(t, s, "ensure"))
	assert.Contains(t, rowOf(t, s, "id"), "| namevar |")
	assert.Contains(t, rowOf(t, s, "created"), "| `String` | read-only |")
	assert.Contains(t, s, "**Autorequires**\n\n* `file`: `$source`\n* `package`: `apt`")

	db := sectionOf(t, doc, "database")
	assert.Equal(t, "| `ensure` | `Enum[present, absent]` | property | What state the database should be in. | `:up` |", rowOf(t, db, "ensure"))
	assert.Contains(t, rowOf(t, db, "address"), "| namevar |")
	assert.Contains(t, rowOf(t, db, "encrypt"), "| `Boolean` | parameter |")
	assert.Contains(t, db, "**Features**\n\n* `encryption`: The provider supports encryption.")
}

func TestRenderProvider(t *testing.T) {
	t.Parallel()

	doc := Render(fixtureRegistry(t, "types.rb"), Options{})
	s := sectionOf(t, doc, "database-linux")

	assert.Contains(t, s, "### linux")
	assert.Contains(t, s, "Resource type: [`database`](#database)")
	assert.Contains(t, s, "**Confines**\n\n* `kernel`: `Linux`\n* `osfamily`: `RedHat`")
	assert.Contains(t, s, "**Default for**\n\n* `kernel`: `Linux`\n* `osfamily`: `RedHat`\n* `operatingsystemmajrelease`: `7`")
	assert.Contains(t, s, "**Features**\n\n* `implements_some_feature`\n* `some_other_feature`")
	assert.Contains(t, s, "**Commands**\n\n* `foo`: `/usr/bin/foo`")
}

func TestRenderOmitsEmptyGroups(t *testing.T) {
	t.Parallel()

	doc := Render(newRegistry(t, &model.Entity{Kind: model.Class, Name: "only"}), Options{})
	assert.Contains(t, doc, "## Classes")
	assert.Contains(t, doc, "**Classes**")
	for _, label := range []string{"Defined types", "Functions", "Resource types", "Providers"} {
		assert.NotContains(t, doc, "## "+label)
		assert.NotContains(t, doc, "**"+label+"**")
	}
}

func TestRenderPreservesParameterOrder(t *testing.T) {
	t.Parallel()

	e := &model.Entity{
		Kind: model.DefinedType,
		Name: "ordered",
		Params: []model.Param{
			{Name: "zeta"},
			{Name: "alpha"},
			{Name: "mid"},
		},
	}
	doc := Render(newRegistry(t, e), Options{})
	z, a, m := strings.Index(doc, "| `zeta` |"), strings.Index(doc, "| `alpha` |"), strings.Index(doc, "| `mid` |")
	require.GreaterOrEqual(t, z, 0)
	assert.Less(t, z, a)
	assert.Less(t, a, m)
}

func TestRenderAnchorCollisions(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t,
		&model.Entity{Kind: model.Class, Name: "foo"},
		&model.Entity{Kind: model.Function, Name: "foo", ReturnType: "Any"},
		&model.Entity{Kind: model.ResourceType, Name: "foo"},
	)
	doc := Render(reg, Options{})

	assert.Contains(t, doc, `<a id="foo"></a>`)
	assert.Contains(t, doc, `<a id="foo-1"></a>`)
	assert.Contains(t, doc, `<a id="foo-2"></a>`)
	assert.Contains(t, doc, "* [`foo`](#foo-1)")
	assert.Less(t, strings.Index(doc, `<a id="foo"></a>`), strings.Index(doc, `<a id="foo-1"></a>`))
}

func TestRenderUndeclaredReturnIsAny(t *testing.T) {
	t.Parallel()

	x, err := extract.New(nil)
	require.NoError(t, err)
	x.Unit("f.pp", []byte("function f($x) {}\n"))
	reg, err := x.Finish()
	require.NoError(t, err)

	s := sectionOf(t, Render(reg, Options{}), "f")
	assert.Contains(t, s, "Returns: `Any`")
	assert.Contains(t, s, "| `x` | `Any` |  |  |")
}

func TestRenderUnknownTagsHidden(t *testing.T) {
	t.Parallel()

	e := &model.Entity{
		Kind: model.Class,
		Name: "tagged",
		Tags: []model.Tag{{Kind: model.Unknown, Raw: "api", Body: "private"}},
	}
	doc := Render(newRegistry(t, e), Options{})
	assert.NotContains(t, doc, "private")
}

func TestRenderRaisesListStandsAlone(t *testing.T) {
	t.Parallel()

	e := &model.Entity{
		Kind: model.Class,
		Name: "opts",
		Tags: []model.Tag{
			{Kind: model.Option, Raw: "option", Subject: "opts", Name: ":foo", Body: "bar"},
			{Kind: model.Raise, Raw: "raise", Body: "SomeError"},
		},
	}
	rt := &model.Entity{
		Kind:         model.ResourceType,
		Name:         "thing",
		Autorequires: []model.Pair{{Key: "file"}},
		Tags:         []model.Tag{{Kind: model.Raise, Raw: "raise", Body: "Oops"}},
	}
	doc := Render(newRegistry(t, e, rt), Options{})

	var lists [][]string
	ast.WalkFunc(parse(doc), func(node ast.Node, entering bool) ast.WalkStatus {
		if l, ok := node.(*ast.List); ok && entering {
			var items []string
			for _, item := range l.Children {
				items = append(items, nodeText(item))
			}
			lists = append(lists, items)
		}
		return ast.GoToNext
	})

	assert.Equal(t, [][]string{
		{"opts"},
		{"thing"},
		{"opts :foo: bar"},
		{"Raises: SomeError"},
		{"file"},
		{"Raises: Oops"},
	}, lists)
}

func TestRenderFunction4xDocumentedByOverloads(t *testing.T) {
	t.Parallel()

	e := &model.Entity{
		Kind:     model.Function4x,
		Name:     "multi",
		Overview: "TOP LEVEL",
		Tags:     []model.Tag{{Kind: model.Summary, Raw: "summary", Body: "Top summary."}},
		Overloads: []model.Overload{
			{Name: "a", Overview: "First overload.", ReturnType: "Any"},
			{Name: "b", Overview: "Second overload.", ReturnType: "Any"},
		},
	}
	single := &model.Entity{
		Kind:      model.Function4x,
		Name:      "single",
		Overview:  "TOP LEVEL",
		Overloads: []model.Overload{{Name: "a", Overview: "Only overload.", ReturnType: "Any"}},
	}
	doc := Render(newRegistry(t, e, single), Options{})

	assert.NotContains(t, doc, "TOP LEVEL")
	assert.NotContains(t, doc, "Top summary.")
	assert.Contains(t, doc, "* [`multi`](#multi): First overload.")
	assert.Contains(t, sectionOf(t, doc, "multi"), "Second overload.")
	assert.Contains(t, sectionOf(t, doc, "single"), "Only overload.")
}

func TestRenderOptionalParamType(t *testing.T) {
	t.Parallel()

	e := &model.Entity{
		Kind: model.Function4x,
		Name: "opt",
		Overloads: []model.Overload{{
			Name: "opt",
			Params: []model.Param{
				{Name: "a", Type: "String", Modifier: model.Optional},
				{Name: "b", Type: "Integer", Modifier: model.Optional, Default: "1", HasDefault: true},
			},
			ReturnType: "Any",
		}},
	}
	s := sectionOf(t, Render(newRegistry(t, e), Options{}), "opt")

	assert.Contains(t, s, "`opt(Optional[String] $a, Integer $b = 1)`")
	assert.Contains(t, s, "| `a` | `Optional[String]` |  |  |")
	assert.Contains(t, s, "| `b` | `Integer` |  | `1` |")
}

func TestSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params []model.Param
		want   string
	}{
		{"no params", nil, "f()"},
		{"required", []model.Param{{Name: "a", Type: "Integer", Modifier: model.Required}}, "f(Integer $a)"},
		{"optional", []model.Param{{Name: "a", Type: "String", Modifier: model.Optional}}, "f(Optional[String] $a)"},
		{"already optional", []model.Param{{Name: "a", Type: "Optional[String]", Modifier: model.Optional}}, "f(Optional[String] $a)"},
		{"default", []model.Param{{Name: "a", Type: "String", Default: "'x'", HasDefault: true, Modifier: model.Optional}}, "f(String $a = 'x')"},
		{"repeated", []model.Param{{Name: "rest", Type: "Any", Modifier: model.Repeated}}, "f(Any *$rest)"},
		{"block", []model.Param{{Name: "block", Type: "Callable", Modifier: model.Block}}, "f(Callable &$block)"},
		{"untyped", []model.Param{{Name: "a"}}, "f($a)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, signature("f", tt.params))
		})
	}
}

func TestCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", code(""))
	assert.Equal(t, "`x`", code("x"))
	assert.Equal(t, "`` a`b ``", code("a`b"))
	assert.Equal(t, "``` a``b ```", code("a``b"))
}

func TestFencedGrowsFence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "```puppet\nx\n```", fenced("puppet", "x"))
	assert.Equal(t, "````puppet\n```\n````", fenced("puppet", "```"))
}

func TestEscapeCell(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `a \| b<br>c`, escapeCell(" a | b\nc "))
}
