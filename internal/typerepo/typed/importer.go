package typed

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type typedPackage struct {
	path  string
	dir   string
	files []*ast.File
	pkg   *types.Package
	info  *types.Info
}

// moduleImporter type-checks packages of the scanned module from source and
// hands everything else to the default importer.
type moduleImporter struct {
	fset       *token.FileSet
	root       string
	modulePath string
	fallback   types.Importer
	loaded     map[string]*typedPackage
	loading    map[string]bool
}

func newModuleImporter(fset *token.FileSet, root, modulePath string) *moduleImporter {
	return &moduleImporter{
		fset:       fset,
		root:       root,
		modulePath: modulePath,
		fallback:   importer.Default(),
		loaded:     make(map[string]*typedPackage),
		loading:    make(map[string]bool),
	}
}

func (m *moduleImporter) Import(importPath string) (*types.Package, error) {
	if dir, ok := m.dirOf(importPath); ok {
		tp, err := m.load(importPath, dir)
		if err != nil {
			return nil, err
		}
		return tp.pkg, nil
	}
	return m.fallback.Import(importPath)
}

func (m *moduleImporter) dirOf(importPath string) (string, bool) {
	if importPath == m.modulePath {
		return m.root, true
	}
	if rel, ok := strings.CutPrefix(importPath, m.modulePath+"/"); ok {
		return filepath.Join(m.root, filepath.FromSlash(rel)), true
	}
	return "", false
}

func (m *moduleImporter) importPathOf(dir string) string {
	rel, err := filepath.Rel(m.root, dir)
	if err != nil || rel == "." {
		return m.modulePath
	}
	return path.Join(m.modulePath, filepath.ToSlash(rel))
}

// load parses and checks one package. Type errors are ignored so partial
// information survives broken or unimportable dependencies.
func (m *moduleImporter) load(importPath, dir string) (*typedPackage, error) {
	if tp, ok := m.loaded[importPath]; ok {
		return tp, nil
	}
	if m.loading[importPath] {
		return nil, fmt.Errorf("import cycle through %s", importPath)
	}
	m.loading[importPath] = true
	defer delete(m.loading, importPath)

	bp, err := build.ImportDir(dir, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read package %s: %w", importPath, err)
	}

	names := append([]string(nil), bp.GoFiles...)
	sort.Strings(names)
	files := make([]*ast.File, 0, len(names))
	for _, name := range names {
		f, err := parser.ParseFile(m.fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		files = append(files, f)
	}

	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	conf := &types.Config{
		Importer: m,
		Error:    func(error) {},
	}
	pkg, _ := conf.Check(importPath, m.fset, files, info)

	tp := &typedPackage{path: importPath, dir: dir, files: files, pkg: pkg, info: info}
	m.loaded[importPath] = tp
	return tp, nil
}
