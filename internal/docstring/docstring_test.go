package docstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/ppdoc/internal/model"
)

func TestStripComment(t *testing.T) {
	t.Parallel()

	got := StripComment([]string{
		"# Overview line.",
		"#",
		"  #   indented",
		"## double",
		"not a comment",
	})
	assert.Equal(t, "Overview line.\n\n  indented\ndouble\nnot a comment", got)
}

func TestParseOverviewOnly(t *testing.T) {
	t.Parallel()

	d := Parse("First paragraph.\n\n\n\nSecond paragraph.\n")
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", d.Overview)
	assert.Empty(t, d.Tags)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	d := Parse("")
	assert.Equal(t, "", d.Overview)
	assert.Empty(t, d.Tags)
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want model.Tag
	}{
		{
			name: "summary",
			text: "@summary A short summary.",
			want: model.Tag{Kind: model.Summary, Raw: "summary", Body: "A short summary."},
		},
		{
			name: "param without types",
			text: "@param param1 First param.",
			want: model.Tag{Kind: model.TagParam, Raw: "param", Subject: "param1", Body: "First param."},
		},
		{
			name: "param with types first",
			text: "@param [Array[String], Undef] names The names.",
			want: model.Tag{Kind: model.TagParam, Raw: "param", Subject: "names", Types: []string{"Array[String]", "Undef"}, Body: "The names."},
		},
		{
			name: "param with types after name",
			text: "@param $count [Integer] How many.",
			want: model.Tag{Kind: model.TagParam, Raw: "param", Subject: "count", Types: []string{"Integer"}, Body: "How many."},
		},
		{
			name: "param without name",
			text: "@param",
			want: model.Tag{Kind: model.TagParam, Raw: "param"},
		},
		{
			name: "param without name trailing space",
			text: "@param ",
			want: model.Tag{Kind: model.TagParam, Raw: "param"},
		},
		{
			name: "return",
			text: "@return [Undef] Returns nothing.",
			want: model.Tag{Kind: model.Return, Raw: "return", Types: []string{"Undef"}, Body: "Returns nothing."},
		},
		{
			name: "raise",
			text: "@raise SomeError",
			want: model.Tag{Kind: model.Raise, Raw: "raise", Body: "SomeError"},
		},
		{
			name: "see",
			text: "@see www.puppet.com The website.",
			want: model.Tag{Kind: model.See, Raw: "see", Name: "www.puppet.com", Body: "The website."},
		},
		{
			name: "since",
			text: "@since 1.0.0",
			want: model.Tag{Kind: model.Since, Raw: "since", Body: "1.0.0"},
		},
		{
			name: "author",
			text: "@author eputnam",
			want: model.Tag{Kind: model.Author, Raw: "author", Body: "eputnam"},
		},
		{
			name: "option",
			text: "@option opts [String] :foo The foo option.",
			want: model.Tag{Kind: model.Option, Raw: "option", Subject: "opts", Types: []string{"String"}, Name: ":foo", Body: "The foo option."},
		},
		{
			name: "unknown",
			text: "@frobnicate lots",
			want: model.Tag{Kind: model.Unknown, Raw: "frobnicate", Body: "lots"},
		},
		{
			name: "unbalanced types left as text",
			text: "@return [Array[String] oops",
			want: model.Tag{Kind: model.Return, Raw: "return", Body: "[Array[String] oops"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := Parse(tt.text)
			require.Len(t, d.Tags, 1)
			assert.Equal(t, tt.want, d.Tags[0])
			assert.Equal(t, "", d.Overview)
		})
	}
}

func TestParseContinuation(t *testing.T) {
	t.Parallel()

	d := Parse("Overview.\n@param x The first\n  line continues.\nBack to the overview.")
	assert.Equal(t, "Overview.\nBack to the overview.", d.Overview)
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "The first\nline continues.", d.Tags[0].Body)
}

func TestParseExample(t *testing.T) {
	t.Parallel()

	text := "@example Basic usage\n  class { 'klass':\n    param1 => 1,\n  }\n\n@since 2.0"
	d := Parse(text)
	require.Len(t, d.Tags, 2)

	ex := d.Tags[0]
	assert.Equal(t, model.Example, ex.Kind)
	assert.Equal(t, "Basic usage", ex.Name)
	assert.Equal(t, "class { 'klass':\n  param1 => 1,\n}", ex.Body)
	assert.Equal(t, "2.0", d.Tags[1].Body)
}

func TestParseExampleWithoutTitle(t *testing.T) {
	t.Parallel()

	d := Parse("@example\n  include foo")
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "", d.Tags[0].Name)
	assert.Equal(t, "include foo", d.Tags[0].Body)
}

func TestParseMalformedTagIsText(t *testing.T) {
	t.Parallel()

	d := Parse("Mail me @ home.\n@ not a tag")
	assert.Equal(t, "Mail me @ home.\n@ not a tag", d.Overview)
	assert.Empty(t, d.Tags)
}

func TestParseStrayAtContinuesTag(t *testing.T) {
	t.Parallel()

	d := Parse("@param x Value\n@ 5")
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "Value\n@ 5", d.Tags[0].Body)
}

func TestParsePreservesTagOrder(t *testing.T) {
	t.Parallel()

	d := Parse("@param b B.\n@param a A.\n@raise E\n@param c C.")
	var subjects []string
	for _, tag := range model.TagsOf(d.Tags, model.TagParam) {
		subjects = append(subjects, tag.Subject)
	}
	assert.Equal(t, []string{"b", "a", "c"}, subjects)
	assert.Len(t, d.Tags, 4)
}

func TestParseCRLF(t *testing.T) {
	t.Parallel()

	d := Parse("Overview.\r\n@since 1.2\r\n")
	assert.Equal(t, "Overview.", d.Overview)
	require.Len(t, d.Tags, 1)
	assert.Equal(t, "1.2", d.Tags[0].Body)
}
