package typerepo

import (
	"errors"
	"go/token"
	"strings"
)

// Category classifies a type.
type Category string

const (
	CategoryClass         Category = "class"
	CategoryInterface     Category = "interface"
	CategoryAbstractClass Category = "abstract-class"
	CategoryEnum          Category = "enum"
)

// Visibility is the access level of a type.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPackage   Visibility = "package"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
)

// ErrTypeNotFound is returned by providers for names they cannot load.
var ErrTypeNotFound = errors.New("type not found")

// Type is a resolved entry of the type universe. Name is fully qualified as
// "import/path.Name".
type Type struct {
	Name       string     `json:"name" yaml:"name"`
	Category   Category   `json:"category,omitempty" yaml:"category,omitempty"`
	Visibility Visibility `json:"visibility,omitempty" yaml:"visibility,omitempty"`
	// Markers are the directive comments attached to the declaration,
	// without the leading "//", e.g. "arch:component".
	Markers   []string `json:"markers,omitempty" yaml:"markers,omitempty"`
	Filepath  string   `json:"filepath,omitempty" yaml:"filepath,omitempty"`
	StartLine int      `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	Lines     int      `json:"lines,omitempty" yaml:"lines,omitempty"`
	Doc       string   `json:"doc,omitempty" yaml:"doc,omitempty"`
	// Methods are the line ranges of the methods declared on the type,
	// which may live in other files of its package.
	Methods []LineRange `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// LineRange is an inclusive span of lines in a file relative to the root.
type LineRange struct {
	Filepath string `json:"filepath" yaml:"filepath"`
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
}

func (r LineRange) Lines() int { return r.End - r.Start + 1 }

// Size is the number of lines of the declaration plus its methods.
func (t Type) Size() int {
	size := t.Lines
	for _, m := range t.Methods {
		size += m.Lines()
	}
	return size
}

// Ranges returns the declaration span followed by the method spans. A type
// without a known position has none.
func (t Type) Ranges() []LineRange {
	var out []LineRange
	if t.StartLine > 0 && t.Lines > 0 {
		out = append(out, LineRange{Filepath: t.Filepath, Start: t.StartLine, End: t.StartLine + t.Lines - 1})
	}
	return append(out, t.Methods...)
}

func (t Type) IsInterface() bool { return t.Category == CategoryInterface }

// IsConcrete reports whether values of t can be created directly.
func (t Type) IsConcrete() bool {
	return t.Category == CategoryClass || t.Category == CategoryEnum
}

// SimpleName returns the part of t's name after the package.
func (t Type) SimpleName() string { return SimpleName(t.Name) }

// Package returns the import path t is declared in.
func (t Type) Package() string { return PackageOf(t.Name) }

// Provider is the ecosystem-specific backend of a Repository: it knows how
// to enumerate, load and inspect types. Implementations return
// ErrTypeNotFound (possibly wrapped) for unknown names.
type Provider interface {
	Types() ([]Type, error)
	Lookup(name string) (Type, error)
	References(name string) ([]string, error)
	AssignableTo(name, target string) (bool, error)
}

// QualifiedName joins an import path and a type name.
func QualifiedName(pkgPath, name string) string {
	if pkgPath == "" {
		return name
	}
	return pkgPath + "." + name
}

// SimpleName strips the package from a qualified name.
func SimpleName(name string) string {
	if i := strings.LastIndex(name, "."); i != -1 && !strings.Contains(name[i+1:], "/") {
		return name[i+1:]
	}
	return name
}

// PackageOf returns the import path part of a qualified name.
func PackageOf(name string) string {
	if i := strings.LastIndex(name, "."); i != -1 && !strings.Contains(name[i+1:], "/") {
		return name[:i]
	}
	return ""
}

// VisibilityOf maps Go export rules onto Visibility.
func VisibilityOf(simpleName string) Visibility {
	if token.IsExported(simpleName) {
		return VisibilityPublic
	}
	return VisibilityPackage
}
