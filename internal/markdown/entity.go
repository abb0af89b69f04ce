package markdown

import (
	"fmt"
	"strings"

	"github.com/phobologic/ppdoc/internal/model"
)

// behaviourLabels is the Behaviour column text for resource type
// attributes.
var behaviourLabels = map[model.Modifier]string{
	model.Namevar:   "namevar",
	model.ReadOnly:  "read-only",
	model.Parameter: "parameter",
	model.Property:  "property",
}

// entity renders one entity section as Markdown blocks.
func (r *renderer) entity(e *model.Entity) []string {
	var (
		tags       = e.Tags
		overviews  = []string{e.Overview}
		params     = e.Params
		kindLine   string
		returnType string
		overloads  []model.Overload
	)

	switch e.Kind {
	case model.Class:
		if e.Inherits != "" {
			kindLine = "Inherits from: " + r.ref(model.Class, e.Inherits)
		}
	case model.Function:
		kindLine = code(signature(e.Name, e.Params))
		returnType = e.ReturnType
	case model.Function4x:
		// Overloads carry all of a 4.x function's documentation.
		tags, overviews, params = nil, nil, nil
		if len(e.Overloads) == 1 {
			// A single overload is the function.
			ov := e.Overloads[0]
			tags = ov.Tags
			overviews = []string{ov.Overview}
			params = ov.Params
			kindLine = code(signature(e.Name, ov.Params))
			returnType = ov.ReturnType
		} else {
			overloads = e.Overloads
		}
	case model.Provider:
		kindLine = "Resource type: " + r.ref(model.ResourceType, e.TypeName)
	}

	blocks := []string{
		fmt.Sprintf(`<a id="%s"></a>`, r.anchors[e]),
		"### " + e.Name,
	}
	if t, ok := model.FirstTag(tags, model.Summary); ok && t.Body != "" {
		blocks = append(blocks, t.Body)
	}
	for _, ov := range overviews {
		if ov != "" {
			blocks = append(blocks, ov)
		}
	}
	if kindLine != "" {
		blocks = append(blocks, kindLine)
	}
	blocks = append(blocks, docBlocks(tags)...)
	blocks = append(blocks, paramBlocks(e.Kind, params, tags)...)
	blocks = append(blocks, kindLists(e)...)

	if len(overloads) > 0 {
		blocks = append(blocks, "#### Overloads")
		for _, ov := range overloads {
			blocks = append(blocks, overload(e.Name, ov)...)
		}
	}

	return append(blocks, tailBlocks(tags, returnType)...)
}

func overload(name string, ov model.Overload) []string {
	blocks := []string{"##### " + code(signature(name, ov.Params))}
	if t, ok := model.FirstTag(ov.Tags, model.Summary); ok && t.Body != "" {
		blocks = append(blocks, t.Body)
	}
	if ov.Overview != "" {
		blocks = append(blocks, ov.Overview)
	}
	blocks = append(blocks, docBlocks(ov.Tags)...)
	blocks = append(blocks, paramBlocks(model.Function4x, ov.Params, ov.Tags)...)
	return append(blocks, tailBlocks(ov.Tags, ov.ReturnType)...)
}

// docBlocks renders @since, @see and @example.
func docBlocks(tags []model.Tag) []string {
	var blocks []string

	if t, ok := model.FirstTag(tags, model.Since); ok && t.Body != "" {
		blocks = append(blocks, "Since: "+t.Body)
	}

	if see := model.TagsOf(tags, model.See); len(see) > 0 {
		lines := []string{"See also:"}
		for _, t := range see {
			lines = append(lines, strings.TrimSpace("* "+t.Name+" "+oneLine(t.Body)))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	if examples := model.TagsOf(tags, model.Example); len(examples) > 0 {
		blocks = append(blocks, "**Examples**")
		for _, t := range examples {
			if t.Name != "" {
				blocks = append(blocks, "_"+t.Name+"_")
			}
			blocks = append(blocks, fenced("puppet", t.Body))
		}
	}
	return blocks
}

// paramBlocks renders the parameter or attribute table followed by the
// @option list.
func paramBlocks(k model.Kind, params []model.Param, tags []model.Tag) []string {
	var blocks []string

	if len(params) > 0 {
		if k == model.ResourceType {
			rows := make([][]string, 0, len(params))
			for _, p := range params {
				rows = append(rows, []string{code(p.Name), typeCell(p), behaviourLabels[p.Modifier], p.Description, defaultCell(p)})
			}
			blocks = append(blocks, "**Attributes**", table([]string{"Name", "Type", "Behaviour", "Description", "Default"}, rows))
		} else {
			rows := make([][]string, 0, len(params))
			for _, p := range params {
				rows = append(rows, []string{code(p.Name), typeCell(p), p.Description, defaultCell(p)})
			}
			blocks = append(blocks, "**Parameters**", table([]string{"Name", "Type", "Description", "Default"}, rows))
		}
	}

	if opts := model.TagsOf(tags, model.Option); len(opts) > 0 {
		lines := make([]string, 0, len(opts))
		for _, t := range opts {
			line := "* " + code(t.Subject)
			if t.Name != "" {
				line += " " + code(t.Name)
			}
			if len(t.Types) > 0 {
				line += " (" + code(strings.Join(t.Types, ", ")) + ")"
			}
			if body := oneLine(t.Body); body != "" {
				line += ": " + body
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, "**Options**", strings.Join(lines, "\n"))
	}
	return blocks
}

// kindLists renders features, relationships and provider conditions.
func kindLists(e *model.Entity) []string {
	var blocks []string
	list := func(label string, lines []string) {
		if len(lines) > 0 {
			blocks = append(blocks, "**"+label+"**", strings.Join(lines, "\n"))
		}
	}

	var features []string
	for _, f := range e.Features {
		line := "* " + code(f.Name)
		if f.Description != "" {
			line += ": " + oneLine(f.Description)
		}
		features = append(features, line)
	}
	list("Features", features)
	list("Autorequires", pairLines(e.Autorequires))
	list("Confines", pairLines(e.Confines))
	list("Default for", pairLines(e.Defaults))
	list("Commands", pairLines(e.Commands))
	return blocks
}

func pairLines(pairs []model.Pair) []string {
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		line := "* " + code(p.Key)
		if p.Value != "" {
			line += ": " + code(p.Value)
		}
		lines = append(lines, line)
	}
	return lines
}

// tailBlocks renders @raise, the return line and @author.
func tailBlocks(tags []model.Tag, returnType string) []string {
	var blocks []string

	if raises := model.TagsOf(tags, model.Raise); len(raises) > 0 {
		lines := make([]string, 0, len(raises))
		for _, t := range raises {
			text := oneLine(t.Body)
			if len(t.Types) > 0 {
				text = strings.TrimSpace(code(strings.Join(t.Types, ", ")) + " " + text)
			}
			lines = append(lines, "* Raises: "+text)
		}
		// The label keeps the bullets from joining a list rendered above.
		blocks = append(blocks, "**Raises**", strings.Join(lines, "\n"))
	}

	ret, hasTag := model.FirstTag(tags, model.Return)
	if returnType != "" || hasTag {
		line := "Returns:"
		switch {
		case returnType != "":
			line += " " + code(returnType)
		case len(ret.Types) > 0:
			line += " " + code(strings.Join(ret.Types, ", "))
		}
		if body := oneLine(ret.Body); body != "" {
			line += " " + body
		}
		blocks = append(blocks, line)
	}

	if authors := model.TagsOf(tags, model.Author); len(authors) > 0 {
		names := make([]string, 0, len(authors))
		for _, t := range authors {
			names = append(names, oneLine(t.Body))
		}
		blocks = append(blocks, "Author: "+strings.Join(names, ", "))
	}
	return blocks
}
