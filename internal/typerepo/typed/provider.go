// Package typed builds a type universe with go/types. References come from
// resolved identifiers and expression types, so they include types that only
// appear implicitly (results of calls, inferred variables). Assignability is
// exact.
package typed

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"archscan/internal/crawler"
	"archscan/internal/typerepo"
)

type decl struct {
	typ  typerepo.Type
	obj  *types.TypeName
	refs []string
}

// Provider is a typerepo.Provider over the packages of one Go module.
type Provider struct {
	modulePath string
	root       string
	fset       *token.FileSet
	imp        *moduleImporter
	decls      map[string]*decl
}

// Load type-checks every package under root. Packages that cannot be read
// are logged and skipped.
func Load(root string, log logrus.FieldLogger) (*Provider, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	modulePath, err := crawler.ModulePath(root)
	if err != nil {
		return nil, err
	}
	dirs, err := crawler.PackageDirs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	fset := token.NewFileSet()
	p := &Provider{
		modulePath: modulePath,
		root:       root,
		fset:       fset,
		imp:        newModuleImporter(fset, root, modulePath),
		decls:      make(map[string]*decl),
	}

	for _, dir := range dirs {
		importPath := p.imp.importPathOf(dir)
		tp, err := p.imp.load(importPath, dir)
		if err != nil {
			log.WithField("package", importPath).WithError(err).Warn("skipping package")
			continue
		}
		p.collect(tp)
	}

	log.WithFields(logrus.Fields{"module": modulePath, "types": len(p.decls)}).Debug("typed universe loaded")
	return p, nil
}

// ModulePath returns the path of the loaded module.
func (p *Provider) ModulePath() string { return p.modulePath }

func (p *Provider) collect(tp *typedPackage) {
	if tp.pkg == nil {
		return
	}
	methods := make(map[string][]*ast.FuncDecl)
	for _, f := range tp.files {
		for _, d := range f.Decls {
			if fn, ok := d.(*ast.FuncDecl); ok && fn.Recv != nil && len(fn.Recv.List) > 0 {
				if recv := receiverName(fn.Recv.List[0].Type); recv != "" {
					methods[recv] = append(methods[recv], fn)
				}
			}
		}
	}

	for _, f := range tp.files {
		for _, d := range f.Decls {
			gen, ok := d.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, s := range gen.Specs {
				spec := s.(*ast.TypeSpec)
				obj, ok := tp.info.Defs[spec.Name].(*types.TypeName)
				if !ok {
					continue
				}

				var node ast.Node = spec
				doc := spec.Doc
				if len(gen.Specs) == 1 {
					node = gen
					doc = gen.Doc
				}
				start := p.fset.Position(node.Pos())
				end := p.fset.Position(node.End())

				name := objectName(obj)
				text, markers := splitDoc(doc)
				p.decls[name] = &decl{
					obj: obj,
					typ: typerepo.Type{
						Name:       name,
						Category:   category(obj),
						Visibility: typerepo.VisibilityOf(obj.Name()),
						Markers:    markers,
						Filepath:   p.relPath(start.Filename),
						StartLine:  start.Line,
						Lines:      end.Line - start.Line + 1,
						Doc:        text,
						Methods:    p.methodRanges(methods[spec.Name.Name]),
					},
					refs: references(tp.info, name, spec, methods[spec.Name.Name]),
				}
			}
		}
	}
}

func (p *Provider) methodRanges(fns []*ast.FuncDecl) []typerepo.LineRange {
	var out []typerepo.LineRange
	for _, fn := range fns {
		start := p.fset.Position(fn.Pos())
		end := p.fset.Position(fn.End())
		out = append(out, typerepo.LineRange{Filepath: p.relPath(start.Filename), Start: start.Line, End: end.Line})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Filepath != out[j].Filepath {
			return out[i].Filepath < out[j].Filepath
		}
		return out[i].Start < out[j].Start
	})
	return out
}

func (p *Provider) relPath(file string) string {
	if rel, err := filepath.Rel(p.root, file); err == nil {
		return filepath.ToSlash(rel)
	}
	return file
}

func (p *Provider) Types() ([]typerepo.Type, error) {
	out := make([]typerepo.Type, 0, len(p.decls))
	for _, d := range p.decls {
		out = append(out, d.typ)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Lookup also answers for types the module imports, without source
// position.
func (p *Provider) Lookup(name string) (typerepo.Type, error) {
	if d, ok := p.decls[name]; ok {
		return d.typ, nil
	}
	obj, err := p.object(name)
	if err != nil {
		return typerepo.Type{}, err
	}
	return typerepo.Type{
		Name:       name,
		Category:   category(obj),
		Visibility: typerepo.VisibilityOf(obj.Name()),
	}, nil
}

func (p *Provider) References(name string) ([]string, error) {
	d, ok := p.decls[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, typerepo.ErrTypeNotFound)
	}
	return append([]string(nil), d.refs...), nil
}

// AssignableTo reports interface implementation by the value or pointer
// type, and struct embedding otherwise.
func (p *Provider) AssignableTo(name, target string) (bool, error) {
	obj, err := p.object(name)
	if err != nil {
		return false, err
	}
	if name == target {
		return true, nil
	}
	targetObj, err := p.object(target)
	if err != nil {
		return false, err
	}

	t, u := obj.Type(), targetObj.Type()
	if iface, ok := u.Underlying().(*types.Interface); ok {
		if types.Implements(t, iface) {
			return true, nil
		}
		if _, isIface := t.Underlying().(*types.Interface); !isIface {
			return types.Implements(types.NewPointer(t), iface), nil
		}
		return false, nil
	}
	return embeds(t, u), nil
}

// object finds the type name declared as name in the module, in the
// universe scope or in any package the module imports.
func (p *Provider) object(name string) (*types.TypeName, error) {
	if d, ok := p.decls[name]; ok {
		return d.obj, nil
	}
	pkgPath, simple := typerepo.PackageOf(name), typerepo.SimpleName(name)
	if pkgPath == "" {
		if obj, ok := types.Universe.Lookup(simple).(*types.TypeName); ok {
			return obj, nil
		}
	} else if pkg := p.findPackage(pkgPath); pkg != nil {
		if obj, ok := pkg.Scope().Lookup(simple).(*types.TypeName); ok {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, typerepo.ErrTypeNotFound)
}

func (p *Provider) findPackage(pkgPath string) *types.Package {
	if tp, ok := p.imp.loaded[pkgPath]; ok {
		return tp.pkg
	}
	seen := make(map[string]bool)
	var queue []*types.Package
	for _, tp := range p.imp.loaded {
		if tp.pkg != nil {
			queue = append(queue, tp.pkg)
		}
	}
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]
		if seen[pkg.Path()] {
			continue
		}
		seen[pkg.Path()] = true
		if pkg.Path() == pkgPath {
			return pkg
		}
		queue = append(queue, pkg.Imports()...)
	}
	return nil
}

// embeds walks embedded struct fields breadth first looking for target.
func embeds(t, target types.Type) bool {
	if types.Identical(t, target) {
		return true
	}
	seen := map[types.Type]bool{}
	queue := []types.Type{t}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		st, ok := current.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if !f.Embedded() {
				continue
			}
			ft := f.Type()
			if ptr, ok := ft.(*types.Pointer); ok {
				ft = ptr.Elem()
			}
			if types.Identical(ft, target) {
				return true
			}
			if !seen[ft] {
				seen[ft] = true
				queue = append(queue, ft)
			}
		}
	}
	return false
}

func category(obj *types.TypeName) typerepo.Category {
	if _, ok := obj.Type().Underlying().(*types.Interface); ok {
		return typerepo.CategoryInterface
	}
	if pkg := obj.Pkg(); pkg != nil {
		scope := pkg.Scope()
		for _, n := range scope.Names() {
			if c, ok := scope.Lookup(n).(*types.Const); ok && types.Identical(c.Type(), obj.Type()) {
				return typerepo.CategoryEnum
			}
		}
	}
	return typerepo.CategoryClass
}

// references collects the named types used by a type declaration and by
// the methods declared on it.
func references(info *types.Info, self string, spec *ast.TypeSpec, methods []*ast.FuncDecl) []string {
	set := make(map[string]bool)
	add := func(obj *types.TypeName) {
		if name := objectName(obj); name != "" && name != self {
			set[name] = true
		}
	}
	visit := func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			if obj, ok := info.Uses[n].(*types.TypeName); ok {
				add(obj)
			}
		case ast.Expr:
			if tv, ok := info.Types[n]; ok && !tv.IsType() {
				namedTypes(tv.Type, add)
			}
		}
		return true
	}

	ast.Inspect(spec.Type, visit)
	if spec.TypeParams != nil {
		ast.Inspect(spec.TypeParams, visit)
	}
	for _, fn := range methods {
		ast.Inspect(fn.Type, visit)
		if fn.Body != nil {
			ast.Inspect(fn.Body, visit)
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// namedTypes reports the named types t is built from, stopping at the first
// named type on each path.
func namedTypes(t types.Type, add func(*types.TypeName)) {
	switch t := t.(type) {
	case *types.Named:
		add(t.Obj())
	case *types.Alias:
		namedTypes(types.Unalias(t), add)
	case *types.Pointer:
		namedTypes(t.Elem(), add)
	case *types.Slice:
		namedTypes(t.Elem(), add)
	case *types.Array:
		namedTypes(t.Elem(), add)
	case *types.Map:
		namedTypes(t.Key(), add)
		namedTypes(t.Elem(), add)
	case *types.Chan:
		namedTypes(t.Elem(), add)
	case *types.Tuple:
		for i := 0; i < t.Len(); i++ {
			namedTypes(t.At(i).Type(), add)
		}
	case *types.Basic:
		if t.Info()&types.IsUntyped != 0 {
			return
		}
		if obj, ok := types.Universe.Lookup(t.Name()).(*types.TypeName); ok {
			add(obj)
		}
	}
}

// objectName qualifies obj as "import/path.Name". Type parameters and types
// declared inside functions have no stable name and yield "".
func objectName(obj *types.TypeName) string {
	if obj == nil {
		return ""
	}
	if _, ok := obj.Type().(*types.TypeParam); ok {
		return ""
	}
	pkg := obj.Pkg()
	if pkg == nil {
		return obj.Name()
	}
	if obj.Parent() != nil && obj.Parent() != pkg.Scope() {
		return ""
	}
	return typerepo.QualifiedName(pkg.Path(), obj.Name())
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.ParenExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

var directiveRe = regexp.MustCompile(`^//[a-z0-9_.-]+:\S`)

// splitDoc separates directive comments from the doc text. CommentGroup.Text
// already drops directives.
func splitDoc(cg *ast.CommentGroup) (string, []string) {
	if cg == nil {
		return "", nil
	}
	var markers []string
	for _, c := range cg.List {
		if directiveRe.MatchString(c.Text) {
			markers = append(markers, strings.TrimPrefix(c.Text, "//"))
		}
	}
	return strings.TrimSpace(cg.Text()), markers
}
