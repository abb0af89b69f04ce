package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ppdoc/internal/docstring"
	"github.com/phobologic/ppdoc/internal/model"
)

const ensureDescription = "The basic property that the resource should be in."

// resourceAPIBehaviours maps Resource API behaviours to modifiers.
var resourceAPIBehaviours = map[string]model.Modifier{
	"namevar":   model.Namevar,
	"read_only": model.ReadOnly,
	"parameter": model.Parameter,
	"init_only": model.Parameter,
}

// typeRef matches the receiver `Puppet::Type.type(:name)` and returns the
// type name.
func (rs *rubySource) typeRef(recv *sitter.Node) (string, bool) {
	if recv.Type() != "call" || rs.callName(recv) != "type" {
		return "", false
	}
	if strings.TrimPrefix(rs.text(recv.ChildByFieldName("receiver")), "::") != "Puppet::Type" {
		return "", false
	}
	name := rs.symbolArg(recv)
	return name, name != ""
}

// newtype extracts `Puppet::Type.newtype(:name) do ... end`.
func (rs *rubySource) newtype(call *sitter.Node, path string) *model.Entity {
	name := rs.symbolArg(call)
	if name == "" {
		return nil
	}
	e := &model.Entity{
		Kind: model.ResourceType,
		Name: name,
		File: path,
		Line: rs.line(call),
	}
	rs.typeBody(e, rs.statements(blockOf(call)))
	return e
}

// typeExtra extracts one `Puppet::Type.type(:name).<call>` statement as
// a partial resource type to be merged into the declared type.
func (rs *rubySource) typeExtra(call *sitter.Node, typeName, path string) *model.Entity {
	e := &model.Entity{
		Kind: model.ResourceType,
		Name: typeName,
		File: path,
		Line: rs.line(call),
	}
	rs.typeBody(e, []*sitter.Node{call})
	return e
}

// typeBody applies newtype body statements to e.
func (rs *rubySource) typeBody(e *model.Entity, stmts []*sitter.Node) {
	synthesized := -1
	for _, st := range stmts {
		switch rs.callName(st) {
		case "desc":
			doc := docstring.Parse(rs.textArg(st))
			e.Overview, e.Tags = doc.Overview, doc.Tags
		case "feature":
			f := model.Feature{Name: rs.symbolArg(st)}
			if args := rs.args(st); len(args) > 1 {
				f.Description = rs.value(args[1])
			}
			e.Features = append(e.Features, f)
		case "ensurable":
			if synthesized < 0 && !hasParam(e.Params, "ensure") {
				synthesized = len(e.Params)
				e.Params = append(e.Params, rs.ensurable(st))
			}
		case "newparam":
			e.Params = append(e.Params, rs.attribute(st, model.Parameter))
		case "newproperty":
			e.Params = append(e.Params, rs.attribute(st, model.Property))
		case "autorequire":
			e.Autorequires = append(e.Autorequires, model.Pair{Key: rs.symbolArg(st)})
		}
	}

	// An explicit ensure property replaces the one ensurable implies.
	if synthesized >= 0 && countParam(e.Params, "ensure") > 1 {
		e.Params = append(e.Params[:synthesized], e.Params[synthesized+1:]...)
	}
}

func (rs *rubySource) ensurable(st *sitter.Node) model.Param {
	p := model.Param{Name: "ensure", Modifier: model.Property}
	if st.Type() != "call" || blockOf(st) == nil {
		p.Type = "Enum[present, absent]"
		p.Description = ensureDescription
		return p
	}
	rs.attributeBody(&p, blockOf(st))
	if p.Description == "" {
		p.Description = ensureDescription
	}
	return p
}

// attribute extracts newparam/newproperty.
func (rs *rubySource) attribute(st *sitter.Node, behaviour model.Modifier) model.Param {
	p := model.Param{Name: rs.symbolArg(st), Modifier: behaviour}
	for _, pr := range rs.pairs(rs.args(st)) {
		v := rs.text(rs.pairValue(pr))
		switch rs.pairKey(pr) {
		case "namevar":
			if v == "true" {
				p.Modifier = model.Namevar
			}
		case "parent":
			if strings.HasSuffix(v, "::Boolean") {
				p.Type = "Boolean"
			}
		case "boolean":
			if v == "true" {
				p.Type = "Boolean"
			}
		}
	}
	rs.attributeBody(&p, blockOf(st))
	return p
}

func (rs *rubySource) attributeBody(p *model.Param, block *sitter.Node) {
	var values []string
	for _, s := range rs.statements(block) {
		switch rs.callName(s) {
		case "desc":
			p.Description = strings.TrimSpace(rs.textArg(s))
		case "isnamevar":
			p.Modifier = model.Namevar
		case "defaultto":
			// Block defaults are computed at runtime.
			if args := rs.args(s); len(args) > 0 {
				p.Default, p.HasDefault = rs.text(args[0]), true
			}
		case "defaultvalues":
			values = append(values, "present", "absent")
		case "newvalue", "newvalues":
			for _, a := range rs.args(s) {
				if a.Type() == "pair" {
					continue
				}
				values = append(values, rs.value(a))
			}
		}
	}
	if p.Type == "" && len(values) > 0 {
		p.Type = "Enum[" + strings.Join(values, ", ") + "]"
	}
}

// registerType extracts `Puppet::ResourceApi.register_type(name: ..., ...)`.
// The attributes hash is taken verbatim.
func (rs *rubySource) registerType(call *sitter.Node, path string) *model.Entity {
	e := &model.Entity{
		Kind: model.ResourceType,
		File: path,
		Line: rs.line(call),
	}

	for _, pr := range rs.pairs(rs.args(call)) {
		v := rs.pairValue(pr)
		if v == nil {
			continue
		}
		switch rs.pairKey(pr) {
		case "name":
			e.Name = rs.value(v)
		case "desc", "docs":
			doc := docstring.Parse(rs.value(v))
			e.Overview, e.Tags = doc.Overview, doc.Tags
		case "attributes":
			if v.Type() != "hash" {
				continue
			}
			for _, attr := range rs.hashPairs(v) {
				e.Params = append(e.Params, rs.apiAttribute(attr))
			}
		case "autorequires":
			if v.Type() != "hash" {
				continue
			}
			for _, rel := range rs.hashPairs(v) {
				e.Autorequires = append(e.Autorequires, model.Pair{
					Key:   rs.pairKey(rel),
					Value: rs.value(rs.pairValue(rel)),
				})
			}
		case "features":
			for i := 0; i < int(v.NamedChildCount()); i++ {
				if c := v.NamedChild(i); c.Type() != "comment" {
					e.Features = append(e.Features, model.Feature{Name: rs.value(c)})
				}
			}
		}
	}

	if e.Name == "" {
		return nil
	}
	return e
}

func (rs *rubySource) apiAttribute(attr *sitter.Node) model.Param {
	p := model.Param{Name: rs.pairKey(attr), Modifier: model.Property}
	spec := rs.pairValue(attr)
	if spec == nil || spec.Type() != "hash" {
		return p
	}
	for _, pr := range rs.hashPairs(spec) {
		v := rs.pairValue(pr)
		switch rs.pairKey(pr) {
		case "type":
			p.Type = rs.value(v)
		case "desc":
			p.Description = strings.TrimSpace(rs.value(v))
		case "behaviour", "behavior":
			if m, ok := resourceAPIBehaviours[rs.value(v)]; ok {
				p.Modifier = m
			}
		case "default":
			p.Default, p.HasDefault = rs.text(v), true
		}
	}
	return p
}

// mergeType folds type extras into a declared type. Attributes already
// declared win.
func mergeType(t, extra *model.Entity) {
	for _, p := range extra.Params {
		if !hasParam(t.Params, p.Name) {
			t.Params = append(t.Params, p)
		}
	}
	t.Features = append(t.Features, extra.Features...)
	t.Autorequires = append(t.Autorequires, extra.Autorequires...)
	if t.Overview == "" && len(t.Tags) == 0 {
		t.Overview, t.Tags = extra.Overview, extra.Tags
	}
}

func hasParam(params []model.Param, name string) bool {
	return countParam(params, name) > 0
}

func countParam(params []model.Param, name string) int {
	n := 0
	for _, p := range params {
		if p.Name == name {
			n++
		}
	}
	return n
}
