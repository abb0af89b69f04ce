package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ppdoc/internal/docstring"
	"github.com/phobologic/ppdoc/internal/model"
)

// provider extracts `Puppet::Type.type(:type).provide(:name) do ... end`.
func (rs *rubySource) provider(call *sitter.Node, typeName, path string) *model.Entity {
	name := rs.symbolArg(call)
	if name == "" {
		return nil
	}
	e := &model.Entity{
		Kind:     model.Provider,
		Name:     name,
		TypeName: typeName,
		File:     path,
		Line:     rs.line(call),
	}

	for _, st := range rs.statements(blockOf(call)) {
		switch rs.callName(st) {
		case "desc":
			doc := docstring.Parse(rs.textArg(st))
			e.Overview, e.Tags = doc.Overview, doc.Tags
		case "confine":
			e.Confines = append(e.Confines, rs.conditions(st)...)
		case "defaultfor":
			e.Defaults = append(e.Defaults, rs.conditions(st)...)
		case "has_feature", "has_features":
			for _, a := range rs.args(st) {
				if a.Type() == "array" {
					for i := 0; i < int(a.NamedChildCount()); i++ {
						e.Features = append(e.Features, model.Feature{Name: rs.value(a.NamedChild(i))})
					}
					continue
				}
				e.Features = append(e.Features, model.Feature{Name: rs.value(a)})
			}
		case "commands", "optional_commands":
			e.Commands = append(e.Commands, rs.conditions(st)...)
		}
	}
	return e
}

// conditions normalizes `key: value`, `:key => value` and hashes of
// several keys into a list of pairs. Bare arguments become keys without
// a value.
func (rs *rubySource) conditions(st *sitter.Node) []model.Pair {
	var out []model.Pair
	for _, a := range rs.args(st) {
		switch a.Type() {
		case "pair":
			out = append(out, rs.condition(a))
		case "hash":
			for _, pr := range rs.hashPairs(a) {
				out = append(out, rs.condition(pr))
			}
		default:
			out = append(out, model.Pair{Key: rs.value(a)})
		}
	}
	return out
}

func (rs *rubySource) condition(pr *sitter.Node) model.Pair {
	v := rs.pairValue(pr)
	value := rs.value(v)
	if v != nil && v.Type() == "array" {
		value = rs.text(v)
	}
	return model.Pair{Key: rs.pairKey(pr), Value: value}
}
