// Package model defines core data structures for ppdoc.
package model

import (
	"regexp"
	"strings"
)

// Kind identifies the declaration shape an Entity was extracted from.
type Kind string

const (
	Class        Kind = "class"
	DefinedType  Kind = "defined_type"
	Function     Kind = "function"
	Function4x   Kind = "function_4x"
	ResourceType Kind = "resource_type"
	Provider     Kind = "provider"
)

// Kinds lists every entity kind in render order.
var Kinds = []Kind{Class, DefinedType, Function, Function4x, ResourceType, Provider}

// TagKind is the kind of a documentation tag.
type TagKind string

const (
	Summary  TagKind = "summary"
	TagParam TagKind = "param"
	Return   TagKind = "return"
	Raise    TagKind = "raise"
	Example  TagKind = "example"
	See      TagKind = "see"
	Since    TagKind = "since"
	Author   TagKind = "author"
	Option   TagKind = "option"
	Unknown  TagKind = "unknown"
)

// Tag is one parsed @tag from a docstring.
type Tag struct {
	Kind TagKind
	// Raw is the tag name as written, without the leading @.
	Raw string
	// Subject is the parameter a @param or @option tag refers to.
	Subject string
	// Name is the example title, the @see reference or the @option key.
	Name  string
	Types []string
	Body  string
}

// Modifier classifies a parameter (functions) or attribute (resource types).
type Modifier string

const (
	Required Modifier = "required"
	Optional Modifier = "optional"
	Block    Modifier = "block"
	Repeated Modifier = "repeated"

	Namevar   Modifier = "namevar"
	ReadOnly  Modifier = "read_only"
	Parameter Modifier = "parameter"
	Property  Modifier = "property"
)

// Param is a parameter of a class, defined type or function, or an
// attribute of a resource type. Type is "" when undeclared.
type Param struct {
	Name        string
	Type        string
	Default     string
	HasDefault  bool
	Modifier    Modifier
	Description string
}

// Overload is one dispatch of a 4.x function.
type Overload struct {
	Name       string
	Overview   string
	Tags       []Tag
	Params     []Param
	ReturnType string
}

// Pair is a key/value condition, command or relationship.
type Pair struct {
	Key   string
	Value string
}

// Feature is a resource type or provider feature.
type Feature struct {
	Name        string
	Description string
}

// Entity is one documented declaration. Which payload fields are set
// depends on Kind.
type Entity struct {
	Kind     Kind
	Name     string
	File     string
	Line     int
	Overview string
	Tags     []Tag

	// Class and defined type.
	Inherits string

	// Class, defined type, function and resource type (attributes).
	Params []Param

	// Function.
	ReturnType string

	// 4.x function.
	Overloads []Overload

	// Resource type and provider.
	Features     []Feature
	Autorequires []Pair

	// Provider.
	TypeName string
	Confines []Pair
	Defaults []Pair
	Commands []Pair
}

// QualifiedName is the registry key name. Providers are scoped by the
// resource type they belong to.
func (e *Entity) QualifiedName() string {
	if e.Kind == Provider && e.TypeName != "" {
		return e.TypeName + "/" + e.Name
	}
	return e.Name
}

// TagsOf returns the tags of kind k in docstring order.
func TagsOf(tags []Tag, k TagKind) []Tag {
	var out []Tag
	for _, t := range tags {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// FirstTag returns the first tag of kind k.
func FirstTag(tags []Tag, k TagKind) (Tag, bool) {
	for _, t := range tags {
		if t.Kind == k {
			return t, true
		}
	}
	return Tag{}, false
}

var nonAnchorRe = regexp.MustCompile(`[^a-z0-9]+`)

// Anchor returns the lower-kebab form of a qualified name.
func Anchor(name string) string {
	return strings.Trim(nonAnchorRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
