// Package source builds a type universe from Go source with tree-sitter. It
// works on any file that parses, needs no dependencies to be downloaded and
// never type-checks, so references and assignability are syntactic
// approximations: method sets are compared by name only.
package source

import (
	"fmt"
	"go/types"
	"path"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"archscan/internal/crawler"
	"archscan/internal/extractor"
	"archscan/internal/typerepo"
)

type decl struct {
	typ      typerepo.Type
	kind     string // extractor unit type: struct, interface or type
	refs     map[string]bool
	embeds   []string // embedded fields or embedded interfaces
	methods  map[string]bool
	pkgPath  string
	fileUnit *extractor.FileUnits
	unit     *extractor.CodeUnit
}

// Provider is a typerepo.Provider over the declarations of one Go module.
type Provider struct {
	modulePath string
	decls      map[string]*decl
}

// Load scans the module rooted at root.
func Load(root string, log logrus.FieldLogger) (*Provider, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	modulePath, err := crawler.ModulePath(root)
	if err != nil {
		return nil, err
	}

	ext, err := extractor.NewExtractor("go")
	if err != nil {
		return nil, err
	}

	var files []*extractor.FileUnits
	if err := crawler.NewCrawler(ext, log).ScanProject(root, func(f *extractor.FileUnits) {
		files = append(files, f)
	}); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	p := &Provider{modulePath: modulePath, decls: make(map[string]*decl)}
	p.build(root, files)
	log.WithFields(logrus.Fields{"module": modulePath, "types": len(p.decls)}).Debug("source universe loaded")
	return p, nil
}

// ModulePath returns the path of the scanned module.
func (p *Provider) ModulePath() string { return p.modulePath }

func (p *Provider) build(root string, files []*extractor.FileUnits) {
	pkgOf := func(f *extractor.FileUnits) string {
		rel, err := filepath.Rel(root, filepath.Dir(f.Filepath))
		if err != nil || rel == "." {
			return p.modulePath
		}
		return path.Join(p.modulePath, filepath.ToSlash(rel))
	}
	relFile := func(f *extractor.FileUnits) string {
		if rel, err := filepath.Rel(root, f.Filepath); err == nil {
			return filepath.ToSlash(rel)
		}
		return f.Filepath
	}

	// Declarations first so references can be told apart from type
	// parameters and unknown identifiers.
	enums := make(map[string]bool)
	for _, f := range files {
		pkgPath := pkgOf(f)
		for _, u := range f.Units {
			if u.UnitType != "struct" && u.UnitType != "interface" && u.UnitType != "type" {
				continue
			}
			name := typerepo.QualifiedName(pkgPath, u.Name)
			p.decls[name] = &decl{
				typ: typerepo.Type{
					Name:       name,
					Visibility: typerepo.VisibilityOf(u.Name),
					Markers:    u.Markers,
					Filepath:   relFile(f),
					StartLine:  u.StartLine,
					Lines:      u.Lines(),
					Doc:        u.Description,
				},
				kind:     u.UnitType,
				refs:     make(map[string]bool),
				methods:  make(map[string]bool),
				pkgPath:  pkgPath,
				fileUnit: f,
				unit:     u,
			}
		}
	}

	for _, f := range files {
		pkgPath := pkgOf(f)
		for _, u := range f.Units {
			switch u.UnitType {
			case "constant":
				for _, ref := range u.References {
					if name, ok := p.resolve(ref, pkgPath, f.Imports); ok && typerepo.PackageOf(name) == pkgPath {
						enums[name] = true
					}
				}
			case "method":
				details, ok := u.Details.(extractor.GoMethodDetails)
				if !ok {
					continue
				}
				d, ok := p.decls[typerepo.QualifiedName(pkgPath, details.Receiver)]
				if !ok {
					continue
				}
				d.methods[u.Name] = true
				d.typ.Methods = append(d.typ.Methods, typerepo.LineRange{Filepath: relFile(f), Start: u.StartLine, End: u.EndLine})
				p.addRefs(d, u.References, pkgPath, f.Imports)
			}
		}
	}

	for name, d := range p.decls {
		f := d.fileUnit
		p.addRefs(d, d.unit.References, d.pkgPath, f.Imports)
		switch details := d.unit.Details.(type) {
		case extractor.GoTypeDetails:
			for _, field := range details.Fields {
				if field.Embedded == nil {
					continue
				}
				if embedded, ok := p.resolve(*field.Embedded, d.pkgPath, f.Imports); ok {
					d.embeds = append(d.embeds, embedded)
				}
			}
		case extractor.GoInterfaceDetails:
			for _, m := range details.Methods {
				d.methods[m] = true
			}
			for _, ref := range details.Embeds {
				if embedded, ok := p.resolve(ref, d.pkgPath, f.Imports); ok {
					d.embeds = append(d.embeds, embedded)
				}
			}
		}

		switch {
		case d.kind == "interface":
			d.typ.Category = typerepo.CategoryInterface
		case enums[name]:
			d.typ.Category = typerepo.CategoryEnum
		default:
			d.typ.Category = typerepo.CategoryClass
		}
		sort.Slice(d.typ.Methods, func(i, j int) bool {
			a, b := d.typ.Methods[i], d.typ.Methods[j]
			if a.Filepath != b.Filepath {
				return a.Filepath < b.Filepath
			}
			return a.Start < b.Start
		})
		delete(d.refs, name)
		d.fileUnit, d.unit = nil, nil
	}
}

func (p *Provider) addRefs(d *decl, refs []extractor.TypeRef, pkgPath string, imports map[string]string) {
	for _, ref := range refs {
		if name, ok := p.resolve(ref, pkgPath, imports); ok {
			d.refs[name] = true
		}
	}
}

// resolve qualifies a syntactic reference. Unqualified names are either
// declared in the package or predeclared; anything else (type parameters,
// dot imports) is dropped.
func (p *Provider) resolve(ref extractor.TypeRef, pkgPath string, imports map[string]string) (string, bool) {
	if ref.Qualifier != "" {
		importPath, ok := imports[ref.Qualifier]
		if !ok {
			return "", false
		}
		return typerepo.QualifiedName(importPath, ref.Name), true
	}
	local := typerepo.QualifiedName(pkgPath, ref.Name)
	if _, ok := p.decls[local]; ok {
		return local, true
	}
	if _, ok := types.Universe.Lookup(ref.Name).(*types.TypeName); ok {
		return ref.Name, true
	}
	return "", false
}

func (p *Provider) Types() ([]typerepo.Type, error) {
	out := make([]typerepo.Type, 0, len(p.decls))
	for _, d := range p.decls {
		out = append(out, d.typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *Provider) Lookup(name string) (typerepo.Type, error) {
	d, err := p.decl(name)
	if err != nil {
		return typerepo.Type{}, err
	}
	return d.typ, nil
}

func (p *Provider) References(name string) ([]string, error) {
	d, err := p.decl(name)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(d.refs))
	for r := range d.refs {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs, nil
}

// AssignableTo compares method names for interface targets and follows
// embedded fields otherwise.
func (p *Provider) AssignableTo(name, target string) (bool, error) {
	d, err := p.decl(name)
	if err != nil {
		return false, err
	}
	if name == target {
		return true, nil
	}
	t, err := p.decl(target)
	if err != nil {
		return false, err
	}

	if t.kind == "interface" {
		have := p.methodSet(d)
		for m := range p.methodSet(t) {
			if !have[m] {
				return false, nil
			}
		}
		return true, nil
	}

	visited := map[string]bool{name: true}
	queue := []string{name}
	for len(queue) > 0 {
		current := p.decls[queue[0]]
		queue = queue[1:]
		if current == nil || current.kind == "interface" {
			continue
		}
		for _, e := range current.embeds {
			if e == target {
				return true, nil
			}
			if !visited[e] {
				visited[e] = true
				queue = append(queue, e)
			}
		}
	}
	return false, nil
}

// methodSet collects declared and promoted method names. Embedded types
// declared outside the module contribute nothing.
func (p *Provider) methodSet(d *decl) map[string]bool {
	set := make(map[string]bool)
	visited := make(map[string]bool)
	var walk func(d *decl)
	walk = func(d *decl) {
		if visited[d.typ.Name] {
			return
		}
		visited[d.typ.Name] = true
		for m := range d.methods {
			set[m] = true
		}
		for _, e := range d.embeds {
			if embedded, ok := p.decls[e]; ok {
				walk(embedded)
			}
		}
	}
	walk(d)
	return set
}

func (p *Provider) decl(name string) (*decl, error) {
	d, ok := p.decls[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, typerepo.ErrTypeNotFound)
	}
	return d, nil
}
