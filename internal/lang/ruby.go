package lang

import (
	"github.com/smacker/go-tree-sitter/ruby"
)

// Ruby hosts the embedded DSLs: 4.x functions, resource types and providers.
const Ruby = "ruby"

func init() {
	Languages[Ruby] = &Language{
		Name:       Ruby,
		Extensions: []string{".rb"},
		lang:       ruby.GetLanguage(),
	}
}
