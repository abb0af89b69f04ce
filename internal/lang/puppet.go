package lang

// Puppet is the declarative manifest language (classes, defined types and
// functions). It has no tree-sitter grammar here.
const Puppet = "puppet"

func init() {
	Languages[Puppet] = &Language{
		Name:       Puppet,
		Extensions: []string{".pp"},
	}
}
