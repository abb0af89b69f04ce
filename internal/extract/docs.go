package extract

import (
	"strings"

	"github.com/phobologic/ppdoc/internal/model"
)

// applyParamDocs copies @param descriptions onto params, in place. It
// returns the @param subjects that match no parameter and the parameters
// that have no @param tag.
func applyParamDocs(params []model.Param, tags []model.Tag) (unknown, undocumented []string) {
	docs := make(map[string]string)
	for _, t := range model.TagsOf(tags, model.TagParam) {
		if _, seen := docs[t.Subject]; seen {
			continue
		}
		docs[t.Subject] = t.Body
	}

	matched := make(map[string]bool, len(params))
	for i := range params {
		p := &params[i]
		desc, ok := docs[p.Name]
		if !ok {
			undocumented = append(undocumented, p.Name)
			continue
		}
		matched[p.Name] = true
		if p.Description == "" {
			p.Description = desc
		}
	}

	for _, t := range model.TagsOf(tags, model.TagParam) {
		if !matched[t.Subject] {
			unknown = append(unknown, t.Subject)
		}
	}
	return unknown, undocumented
}

// resolveReturn picks the declared return type, then the type given on
// the @return tag, and finally Any.
func resolveReturn(declared string, tags []model.Tag) string {
	if declared != "" {
		return declared
	}
	if t, ok := model.FirstTag(tags, model.Return); ok {
		switch len(t.Types) {
		case 0:
		case 1:
			return t.Types[0]
		default:
			return "Variant[" + strings.Join(t.Types, ", ") + "]"
		}
	}
	return "Any"
}
