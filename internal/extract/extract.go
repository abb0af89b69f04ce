// Package extract turns source units into documented entities.
//
// An Extractor folds source units, in arrival order, into staged
// entities: manifests are scanned by internal/puppet and Ruby sources are
// parsed with tree-sitter and matched against the recognized DSL call
// shapes. Finish commits the staged entities to a fresh registry.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ppdoc/internal/lang"
	"github.com/phobologic/ppdoc/internal/model"
	"github.com/phobologic/ppdoc/internal/puppet"
	"github.com/phobologic/ppdoc/internal/registry"
)

// Skip records a source unit that could not be processed.
type Skip struct {
	Path string
	Err  error
}

// Extractor accumulates entities from source units. It is not safe for
// concurrent use.
type Extractor struct {
	log     *slog.Logger
	parser  *sitter.Parser
	query   *sitter.Query
	staged  []*model.Entity
	extras  []*model.Entity
	skipped []Skip
}

// New creates an Extractor. A nil logger discards log output.
func New(logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rb := lang.Languages[lang.Ruby]
	q, err := rb.GetTagQuery()
	if err != nil {
		return nil, fmt.Errorf("ruby query: %w", err)
	}
	return &Extractor{
		log:    logger,
		parser: rb.NewParser(),
		query:  q,
	}, nil
}

// Unit extracts the declarations of one source unit. The language is
// chosen by file extension. Units that cannot be parsed are recorded as
// skipped and do not stop the run.
func (x *Extractor) Unit(path string, src []byte) {
	var err error
	switch lang.ForExtension(filepath.Ext(path)) {
	case lang.Puppet:
		err = x.manifestUnit(path, src)
	case lang.Ruby:
		err = x.rubyUnit(path, src)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		x.Skip(path, err)
	}
}

// Skip records path as skipped.
func (x *Extractor) Skip(path string, err error) {
	x.log.Warn("skipping source unit", "path", path, "err", err)
	x.skipped = append(x.skipped, Skip{Path: path, Err: err})
}

// Skipped returns the units skipped so far.
func (x *Extractor) Skipped() []Skip {
	return x.skipped
}

// Finish merges resource type extras into their types and inserts every
// staged entity into a new registry, in encounter order. Extras for types
// that were never declared become implicit resource types.
func (x *Extractor) Finish() (*registry.Registry, error) {
	for _, ex := range x.extras {
		if t := x.stagedType(ex.Name); t != nil {
			mergeType(t, ex)
			continue
		}
		x.log.Debug("resource type discovered from type extras", "name", ex.Name, "path", ex.File)
		x.stage(ex)
	}
	x.extras = nil

	reg := registry.New()
	for _, e := range x.staged {
		if err := reg.Insert(e); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (x *Extractor) manifestUnit(path string, src []byte) error {
	decls, err := puppet.Parse(src)
	if err != nil {
		return err
	}
	for _, d := range decls {
		x.stage(manifestEntity(d, path))
	}
	x.log.Debug("extracted manifest", "path", path, "declarations", len(decls))
	return nil
}

func (x *Extractor) rubyUnit(path string, src []byte) error {
	if len(src) == 0 {
		return nil
	}

	tree, err := x.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		x.log.Warn("syntax errors in source unit, extracting what parsed", "path", path)
	}
	rs := newRubySource(src, root)

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(x.query, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, src)

		var call, recv *sitter.Node
		var name string
		for _, c := range match.Captures {
			switch x.query.CaptureNameForId(c.Index) {
			case "definition.dsl":
				call = c.Node
			case "receiver":
				recv = c.Node
			case "name":
				name = rs.text(c.Node)
			}
		}
		if call == nil || recv == nil {
			continue
		}

		receiver := strings.TrimPrefix(rs.text(recv), "::")
		switch name {
		case "create_function":
			if receiver == "Puppet::Functions" {
				x.stageIf(rs.function4x(call, path))
			}
		case "newtype":
			if receiver == "Puppet::Type" {
				x.stageIf(rs.newtype(call, path))
			}
		case "register_type":
			if receiver == "Puppet::ResourceApi" {
				x.stageIf(rs.registerType(call, path))
			}
		case "provide":
			if typ, ok := rs.typeRef(recv); ok {
				x.stageIf(rs.provider(call, typ, path))
			}
		default:
			if typ, ok := rs.typeRef(recv); ok {
				x.extras = append(x.extras, rs.typeExtra(call, typ, path))
			}
		}
	}

	x.log.Debug("extracted ruby source", "path", path)
	return nil
}

func (x *Extractor) stageIf(e *model.Entity) {
	if e == nil {
		return
	}
	x.stage(e)
}

func (x *Extractor) stage(e *model.Entity) {
	x.checkDocs(e)
	x.staged = append(x.staged, e)
}

func (x *Extractor) stagedType(name string) *model.Entity {
	for _, e := range x.staged {
		if e.Kind == model.ResourceType && e.Name == name {
			return e
		}
	}
	return nil
}

// checkDocs attaches @param descriptions and warns about documentation
// gaps. Gaps never fail the run.
func (x *Extractor) checkDocs(e *model.Entity) {
	log := x.log.With("path", e.File, "line", e.Line, "kind", string(e.Kind), "name", e.QualifiedName())

	report := func(unknown, undocumented []string) {
		for _, name := range unknown {
			log.Warn("@param tag has no matching parameter", "param", name)
		}
		for _, name := range undocumented {
			log.Warn("missing @param tag", "param", name)
		}
	}

	documented := e.Overview != "" || len(e.Tags) > 0
	switch e.Kind {
	case model.Function4x:
		for i := range e.Overloads {
			ov := &e.Overloads[i]
			report(applyParamDocs(ov.Params, ov.Tags))
			documented = documented || ov.Overview != "" || len(ov.Tags) > 0
		}
	case model.Class, model.DefinedType, model.Function:
		report(applyParamDocs(e.Params, e.Tags))
	}

	if !documented {
		log.Warn("missing documentation")
	}
}
