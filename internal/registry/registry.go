// Package registry holds the entities documented by one extraction run.
package registry

import (
	"errors"
	"fmt"

	"github.com/phobologic/ppdoc/internal/model"
)

// ErrDuplicateName is matched by every DuplicateNameError.
var ErrDuplicateName = errors.New("duplicate name")

// DuplicateNameError reports two entities of the same kind sharing a name.
type DuplicateNameError struct {
	Kind         model.Kind
	Name         string
	File         string
	PreviousFile string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q in %s already documented in %s", e.Kind, e.Name, e.File, e.PreviousFile)
}

// Is reports whether target is ErrDuplicateName.
func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// Key identifies an entity: names are unique per kind only.
type Key struct {
	Kind model.Kind
	Name string
}

// Registry is an append-only, insertion-ordered collection of entities.
// It is not safe for concurrent use.
type Registry struct {
	byKey  map[Key]*model.Entity
	byKind map[model.Kind][]*model.Entity
	count  int
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byKey:  make(map[Key]*model.Entity),
		byKind: make(map[model.Kind][]*model.Entity),
	}
}

// Insert appends e. It fails with a *DuplicateNameError when an entity of
// the same kind and qualified name is already present.
func (r *Registry) Insert(e *model.Entity) error {
	key := Key{Kind: e.Kind, Name: e.QualifiedName()}
	if prev, ok := r.byKey[key]; ok {
		return &DuplicateNameError{
			Kind:         e.Kind,
			Name:         key.Name,
			File:         e.File,
			PreviousFile: prev.File,
		}
	}
	r.byKey[key] = e
	r.byKind[e.Kind] = append(r.byKind[e.Kind], e)
	r.count++
	return nil
}

// All returns the entities of kind k in insertion order.
func (r *Registry) All(k model.Kind) []*model.Entity {
	return append([]*model.Entity(nil), r.byKind[k]...)
}

// Find looks up an entity by kind and qualified name. A missing entity is
// not an error: it simply was not documented.
func (r *Registry) Find(k model.Kind, name string) (*model.Entity, bool) {
	e, ok := r.byKey[Key{Kind: k, Name: name}]
	return e, ok
}

// Len returns the total number of entities.
func (r *Registry) Len() int {
	return r.count
}
