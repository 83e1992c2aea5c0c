package extractor

import sitter "github.com/smacker/go-tree-sitter"

// CodeUnit is the universal container for any extracted declaration.
type CodeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Package     string      `json:"package"`
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	EndLine     int         `json:"end_line"`
	UnitType    string      `json:"unit_type"` // "struct", "interface", "type", "method" or "constant"
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Markers     []string    `json:"markers,omitempty"`
	References  []TypeRef   `json:"references,omitempty"`
	Details     interface{} `json:"details"` // Language-specific details
}

// Lines is the size of the unit in source lines.
func (u *CodeUnit) Lines() int {
	if u.EndLine < u.StartLine {
		return 0
	}
	return u.EndLine - u.StartLine + 1
}

// TypeRef is a syntactic reference to a named type. Qualifier is the import
// name used in the file, empty for package-local or predeclared names.
type TypeRef struct {
	Qualifier string `json:"qualifier,omitempty"`
	Name      string `json:"name"`
}

func (r TypeRef) String() string {
	if r.Qualifier == "" {
		return r.Name
	}
	return r.Qualifier + "." + r.Name
}

// FileUnits is everything extracted from one source file.
type FileUnits struct {
	Filepath string
	Package  string
	// Imports maps the name a package is referred to by in this file to its
	// import path.
	Imports map[string]string
	Units   []*CodeUnit
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) *CodeUnit
}
