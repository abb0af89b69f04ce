package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ppdoc/internal/docstring"
	"github.com/phobologic/ppdoc/internal/model"
)

// dispatchModifiers maps dispatch parameter declarations to modifiers.
var dispatchModifiers = map[string]model.Modifier{
	"param":                   model.Required,
	"required_param":          model.Required,
	"optional_param":          model.Optional,
	"repeated_param":          model.Repeated,
	"optional_repeated_param": model.Repeated,
	"required_repeated_param": model.Repeated,
	"block_param":             model.Block,
	"required_block_param":    model.Block,
	"optional_block_param":    model.Block,
}

// function4x extracts `Puppet::Functions.create_function(:name) do ... end`.
// Each dispatch block becomes an overload documented by the comment above
// it; the comment above create_function is then ignored. Without a
// dispatch, that comment documents the implicit overload built from the
// implementation method.
func (rs *rubySource) function4x(call *sitter.Node, path string) *model.Entity {
	name := rs.symbolArg(call)
	if name == "" {
		return nil
	}
	e := &model.Entity{
		Kind: model.Function4x,
		Name: name,
		File: path,
		Line: rs.line(call),
	}

	stmts := rs.statements(blockOf(call))
	for _, st := range stmts {
		if rs.callName(st) == "dispatch" {
			e.Overloads = append(e.Overloads, rs.dispatch(st))
		}
	}

	// With dispatches, only the per-overload comments document the
	// function.
	if len(e.Overloads) == 0 {
		for _, st := range stmts {
			if st.Type() == "method" && rs.text(st.ChildByFieldName("name")) == name {
				e.Overloads = append(e.Overloads, rs.implicitOverload(st, rs.commentAbove(call)))
				break
			}
		}
	}

	for i := range e.Overloads {
		e.Overloads[i].ReturnType = resolveReturn(e.Overloads[i].ReturnType, e.Overloads[i].Tags)
	}
	return e
}

func (rs *rubySource) dispatch(st *sitter.Node) model.Overload {
	doc := docstring.Parse(rs.commentAbove(st))
	ov := model.Overload{
		Name:     rs.symbolArg(st),
		Overview: doc.Overview,
		Tags:     doc.Tags,
	}

	for _, s := range rs.statements(blockOf(st)) {
		method := rs.callName(s)
		if method == "return_type" {
			ov.ReturnType = rs.symbolArg(s)
			continue
		}
		mod, ok := dispatchModifiers[method]
		if !ok {
			continue
		}
		ov.Params = append(ov.Params, rs.dispatchParam(s, mod))
	}
	return ov
}

// dispatchParam reads `param 'Type', :name`. Block parameters may omit
// both and default to `Callable $block`.
func (rs *rubySource) dispatchParam(s *sitter.Node, mod model.Modifier) model.Param {
	p := model.Param{Modifier: mod}
	args := rs.args(s)
	switch len(args) {
	case 0:
	case 1:
		if args[0].Type() == "string" {
			p.Type = rs.value(args[0])
		} else {
			p.Name = rs.value(args[0])
		}
	default:
		p.Type = rs.value(args[0])
		p.Name = rs.value(args[1])
	}
	if mod == model.Block {
		if p.Name == "" {
			p.Name = "block"
		}
		if p.Type == "" {
			p.Type = "Callable"
		}
	}
	if p.Type == "" {
		p.Type = "Any"
	}
	return p
}

// implicitOverload documents a function without dispatch blocks from
// its implementation method: every parameter is Any.
func (rs *rubySource) implicitOverload(method *sitter.Node, comment string) model.Overload {
	doc := docstring.Parse(comment)
	ov := model.Overload{
		Name:     rs.text(method.ChildByFieldName("name")),
		Overview: doc.Overview,
		Tags:     doc.Tags,
	}

	params := method.ChildByFieldName("parameters")
	if params == nil {
		return ov
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		c := params.NamedChild(i)
		p := model.Param{Type: "Any", Modifier: model.Required}
		switch c.Type() {
		case "identifier":
			p.Name = rs.text(c)
		case "optional_parameter":
			p.Name = rs.text(c.ChildByFieldName("name"))
			p.Modifier = model.Optional
		case "splat_parameter":
			p.Name = rs.text(c.ChildByFieldName("name"))
			p.Modifier = model.Repeated
		case "block_parameter":
			p.Name = rs.text(c.ChildByFieldName("name"))
			p.Type = "Callable"
			p.Modifier = model.Block
		default:
			continue
		}
		ov.Params = append(ov.Params, p)
	}
	return ov
}
