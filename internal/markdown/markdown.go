// Package markdown renders a registry as a Markdown reference document.
//
// The document is a level-one title, a table of contents, then one
// level-two section per non-empty group of entities. Output depends only
// on the registry contents and the options, so rendering the same
// registry twice yields identical bytes.
package markdown

import (
	"fmt"
	"strings"

	"github.com/phobologic/ppdoc/internal/model"
	"github.com/phobologic/ppdoc/internal/registry"
)

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Reference"

// Options control document-level rendering.
type Options struct {
	Title string
}

type group struct {
	label string
	kinds []model.Kind
}

// groups lists the document sections in render order.
var groups = []group{
	{label: "Classes", kinds: []model.Kind{model.Class}},
	{label: "Defined types", kinds: []model.Kind{model.DefinedType}},
	{label: "Functions", kinds: []model.Kind{model.Function, model.Function4x}},
	{label: "Resource types", kinds: []model.Kind{model.ResourceType}},
	{label: "Providers", kinds: []model.Kind{model.Provider}},
}

type section struct {
	label    string
	entities []*model.Entity
}

type renderer struct {
	reg     *registry.Registry
	anchors map[*model.Entity]string
}

// Render returns the reference document for reg.
func Render(reg *registry.Registry, opts Options) string {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	r := &renderer{
		reg:     reg,
		anchors: make(map[*model.Entity]string),
	}
	sections := r.sections()
	r.assignAnchors(sections)

	blocks := []string{"# " + title}
	blocks = append(blocks, r.toc(sections)...)
	for _, s := range sections {
		blocks = append(blocks, "## "+s.label)
		for _, e := range s.entities {
			blocks = append(blocks, r.entity(e)...)
		}
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// sections returns the non-empty groups.
func (r *renderer) sections() []section {
	var out []section
	for _, g := range groups {
		s := section{label: g.label}
		for _, k := range g.kinds {
			s.entities = append(s.entities, r.reg.All(k)...)
		}
		if len(s.entities) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// assignAnchors gives every entity a document-unique anchor. Collisions
// get numeric suffixes in render order.
func (r *renderer) assignAnchors(sections []section) {
	used := make(map[string]bool)
	for _, s := range sections {
		for _, e := range s.entities {
			base := model.Anchor(e.QualifiedName())
			if base == "" {
				base = string(e.Kind)
			}
			a := base
			for i := 1; used[a]; i++ {
				a = fmt.Sprintf("%s-%d", base, i)
			}
			used[a] = true
			r.anchors[e] = a
		}
	}
}

func (r *renderer) toc(sections []section) []string {
	if len(sections) == 0 {
		return nil
	}
	blocks := []string{"## Table of Contents"}
	for _, s := range sections {
		lines := make([]string, 0, len(s.entities))
		for _, e := range s.entities {
			line := fmt.Sprintf("* [%s](#%s)", code(e.Name), r.anchors[e])
			if sum := summaryOf(e); sum != "" {
				line += ": " + sum
			}
			lines = append(lines, line)
		}
		blocks = append(blocks, "**"+s.label+"**", strings.Join(lines, "\n"))
	}
	return blocks
}

// ref links name to its section when the registry documents it.
func (r *renderer) ref(k model.Kind, name string) string {
	if e, ok := r.reg.Find(k, name); ok {
		return fmt.Sprintf("[%s](#%s)", code(name), r.anchors[e])
	}
	return code(name)
}

// summaryOf returns a one-line summary: the @summary tag, else the first
// line of the overview. 4.x functions take it from their first overload.
func summaryOf(e *model.Entity) string {
	if e.Kind == model.Function4x {
		if len(e.Overloads) == 0 {
			return ""
		}
		return summaryText(e.Overloads[0].Overview, e.Overloads[0].Tags)
	}
	return summaryText(e.Overview, e.Tags)
}

func summaryText(overview string, tags []model.Tag) string {
	if t, ok := model.FirstTag(tags, model.Summary); ok && strings.TrimSpace(t.Body) != "" {
		return strings.Join(strings.Fields(t.Body), " ")
	}
	for _, line := range strings.Split(overview, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
