package extract

import (
	"github.com/phobologic/ppdoc/internal/docstring"
	"github.com/phobologic/ppdoc/internal/model"
	"github.com/phobologic/ppdoc/internal/puppet"
)

// manifestEntity converts a class, defined type or function declaration.
func manifestEntity(d puppet.Decl, path string) *model.Entity {
	doc := docstring.Parse(d.Comment)
	e := &model.Entity{
		Name:     d.Name,
		File:     path,
		Line:     d.Line,
		Overview: doc.Overview,
		Tags:     doc.Tags,
	}

	switch d.Kind {
	case puppet.Class:
		e.Kind = model.Class
		e.Inherits = d.Inherits
	case puppet.Define:
		e.Kind = model.DefinedType
	case puppet.Function:
		e.Kind = model.Function
		e.ReturnType = resolveReturn(d.ReturnType, doc.Tags)
	}

	for _, p := range d.Params {
		mp := model.Param{Name: p.Name, Type: p.Type}
		if e.Kind == model.Function {
			mp.Default, mp.HasDefault = p.Default, p.HasDefault
			switch {
			case p.CapturesRest:
				mp.Modifier = model.Repeated
			case p.HasDefault:
				mp.Modifier = model.Optional
			default:
				mp.Modifier = model.Required
			}
			if mp.Type == "" {
				mp.Type = "Any"
			}
		} else if p.HasDefault && p.Default != "undef" {
			mp.Default, mp.HasDefault = p.Default, true
		}
		e.Params = append(e.Params, mp)
	}
	return e
}
