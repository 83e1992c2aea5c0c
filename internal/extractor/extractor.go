package extractor

import (
	"context"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "go":
		langExt = &GoExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// ExtractFromFile parses a single source file and extracts its declarations.
func (e *Extractor) ExtractFromFile(filepath string) (*FileUnits, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractFromSource(filepath, sourceCode)
}

// ExtractFromSource is ExtractFromFile over in-memory source.
func (e *Extractor) ExtractFromSource(filepath string, sourceCode []byte) (*FileUnits, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	result := &FileUnits{
		Filepath: filepath,
		Package:  e.detectPackageName(root, sourceCode),
		Imports:  e.detectImports(root, sourceCode),
	}

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			unit := e.langExtractor.ExtractUnit(captureName, c.Node, sourceCode, filepath, result.Package)
			if unit != nil {
				result.Units = append(result.Units, unit)
			}
		}
	}

	return result, nil
}

func (e *Extractor) detectPackageName(root *sitter.Node, sourceCode []byte) string {
	if e.langName != "go" {
		return ""
	}
	pkgQuery, err := sitter.NewQuery([]byte(`(package_clause (package_identifier) @pkg)`), e.langExtractor.GetLanguage())
	if err != nil {
		return ""
	}
	defer pkgQuery.Close()
	pqc := sitter.NewQueryCursor()
	defer pqc.Close()
	pqc.Exec(pkgQuery, root)
	if m, ok := pqc.NextMatch(); ok && len(m.Captures) > 0 {
		return m.Captures[0].Node.Content(sourceCode)
	}
	return ""
}

func (e *Extractor) detectImports(root *sitter.Node, sourceCode []byte) map[string]string {
	imports := make(map[string]string)
	if e.langName != "go" {
		return imports
	}
	impQuery, err := sitter.NewQuery([]byte(`(import_spec) @imp`), e.langExtractor.GetLanguage())
	if err != nil {
		return imports
	}
	defer impQuery.Close()
	iqc := sitter.NewQueryCursor()
	defer iqc.Close()
	iqc.Exec(impQuery, root)

	for {
		m, ok := iqc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			pathNode := c.Node.ChildByFieldName("path")
			if pathNode == nil {
				continue
			}
			importPath := strings.Trim(pathNode.Content(sourceCode), "\"`")
			alias := DefaultImportName(importPath)
			if nameNode := c.Node.ChildByFieldName("name"); nameNode != nil {
				alias = nameNode.Content(sourceCode)
			}
			if alias == "_" || alias == "." {
				continue
			}
			imports[alias] = importPath
		}
	}
	return imports
}

var majorVersionRe = regexp.MustCompile(`^v[0-9]+$`)
var dotVersionRe = regexp.MustCompile(`\.v[0-9]+$`)

// DefaultImportName guesses the package name an unaliased import is referred
// to by: the last path element without a major version suffix or "go-" prefix.
func DefaultImportName(importPath string) string {
	base := path.Base(importPath)
	if majorVersionRe.MatchString(base) {
		base = path.Base(path.Dir(importPath))
	}
	base = dotVersionRe.ReplaceAllString(base, "")
	base = strings.TrimPrefix(base, "go-")
	return strings.ReplaceAll(base, "-", "_")
}
