package extractor

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// GoExtractor implements LanguageExtractor for Go.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `
		(type_spec) @type
		(method_declaration) @method
		(const_spec) @const
	`
}

func (g *GoExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, packageName string) *CodeUnit {
	var unit *CodeUnit
	switch captureName {
	case "type":
		unit = g.extractTypeUnit(node, sourceCode, filepath)
	case "method":
		unit = g.extractMethodUnit(node, sourceCode, filepath)
	case "const":
		unit = g.extractConstUnit(node, sourceCode, filepath)
	}

	if unit != nil {
		unit.Package = packageName
		unit.Language = "go"
	}
	return unit
}

// Go-specific Detail Schemas

type GoTypeDetails struct {
	Fields []GoField `json:"fields"`
}

type GoInterfaceDetails struct {
	Methods []string  `json:"methods"`
	Embeds  []TypeRef `json:"embeds,omitempty"`
}

type GoMethodDetails struct {
	Receiver  string `json:"receiver"`
	Pointer   bool   `json:"pointer,omitempty"`
	Signature string `json:"signature"`
}

type GoConstDetails struct {
	Type string `json:"type,omitempty"`
}

type GoField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Embedded *TypeRef `json:"embedded,omitempty"`
}

// Extraction Logic

func (g *GoExtractor) extractTypeUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	parentNode := node.Parent()
	if parentNode == nil || parentNode.Type() != "type_declaration" || parentNode.NamedChildCount() > 1 {
		parentNode = node
	}
	doc, markers := g.extractDocComment(parentNode, sourceCode)

	var details interface{}
	unitType := "type"
	switch typeNode.Type() {
	case "struct_type":
		unitType = "struct"
		details = g.extractStructDetails(typeNode, sourceCode)
	case "interface_type":
		unitType = "interface"
		details = g.extractInterfaceDetails(typeNode, sourceCode)
	}

	return &CodeUnit{
		ID:          fmt.Sprintf("%s:%s:%d", filepath, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(parentNode.StartPoint().Row + 1),
		EndLine:     int(parentNode.EndPoint().Row + 1),
		UnitType:    unitType,
		Name:        name,
		Description: doc,
		Markers:     markers,
		References:  collectTypeRefs(typeNode, sourceCode),
		Details:     details,
	}
}

func (g *GoExtractor) extractStructDetails(structNode *sitter.Node, sourceCode []byte) GoTypeDetails {
	fields := []GoField{}
	var fieldList *sitter.Node
	for i := 0; i < int(structNode.NamedChildCount()); i++ {
		child := structNode.NamedChild(i)
		if child.Type() == "field_declaration_list" {
			fieldList = child
			break
		}
	}
	if fieldList == nil {
		return GoTypeDetails{Fields: fields}
	}

	for i := 0; i < int(fieldList.NamedChildCount()); i++ {
		fieldDecl := fieldList.NamedChild(i)
		if fieldDecl.Type() != "field_declaration" {
			continue
		}
		typeNode := fieldDecl.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		fieldType := typeNode.Content(sourceCode)

		foundNames := false
		for j := 0; j < int(fieldDecl.NamedChildCount()); j++ {
			child := fieldDecl.NamedChild(j)
			if child.Type() == "field_identifier" {
				fields = append(fields, GoField{Name: child.Content(sourceCode), Type: fieldType})
				foundNames = true
			}
		}
		if foundNames {
			continue
		}

		// Embedded field: the type is the name.
		if ref, ok := namedTypeRef(typeNode, sourceCode); ok {
			fields = append(fields, GoField{Name: ref.Name, Type: fieldType, Embedded: &ref})
		}
	}
	return GoTypeDetails{Fields: fields}
}

func (g *GoExtractor) extractInterfaceDetails(interfaceNode *sitter.Node, sourceCode []byte) GoInterfaceDetails {
	details := GoInterfaceDetails{Methods: []string{}}
	for i := 0; i < int(interfaceNode.NamedChildCount()); i++ {
		child := interfaceNode.NamedChild(i)
		switch child.Type() {
		case "method_elem", "method_spec":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				details.Methods = append(details.Methods, nameNode.Content(sourceCode))
			}
		case "type_elem", "constraint_elem", "interface_type_name":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if ref, ok := namedTypeRef(child.NamedChild(j), sourceCode); ok {
					details.Embeds = append(details.Embeds, ref)
				}
			}
		case "type_identifier", "qualified_type":
			if ref, ok := namedTypeRef(child, sourceCode); ok {
				details.Embeds = append(details.Embeds, ref)
			}
		}
	}
	return details
}

func (g *GoExtractor) extractMethodUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	receiverNode := node.ChildByFieldName("receiver")
	if nameNode == nil || receiverNode == nil {
		return nil
	}
	receiver, pointer := receiverTypeName(receiverNode, sourceCode)
	if receiver == "" {
		return nil
	}
	name := nameNode.Content(sourceCode)
	doc, markers := g.extractDocComment(node, sourceCode)

	signature := node.Content(sourceCode)
	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		signature = strings.TrimSpace(string(sourceCode[node.StartByte():bodyNode.StartByte()]))
	}

	var refs []TypeRef
	for _, field := range []string{"parameters", "result", "body"} {
		if child := node.ChildByFieldName(field); child != nil {
			refs = append(refs, collectTypeRefs(child, sourceCode)...)
		}
	}

	return &CodeUnit{
		ID:          fmt.Sprintf("%s:%s.%s:%d", filepath, receiver, name, node.StartPoint().Row+1),
		Filepath:    filepath,
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		UnitType:    "method",
		Name:        name,
		Description: doc,
		Markers:     markers,
		References:  dedupeRefs(refs),
		Details:     GoMethodDetails{Receiver: receiver, Pointer: pointer, Signature: signature},
	}
}

// extractConstUnit records typed constants. Untyped specs inside a const
// group inherit the type of the closest preceding typed spec, which is how
// iota enumerations are written.
func (g *GoExtractor) extractConstUnit(node *sitter.Node, sourceCode []byte, filepath string) *CodeUnit {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	typeNode := node.ChildByFieldName("type")
	if typeNode == nil && node.ChildByFieldName("value") != nil {
		return nil
	}
	for prev := node.PrevNamedSibling(); typeNode == nil && prev != nil; prev = prev.PrevNamedSibling() {
		if prev.Type() != "const_spec" {
			continue
		}
		if prev.ChildByFieldName("value") != nil && prev.ChildByFieldName("type") == nil {
			break
		}
		typeNode = prev.ChildByFieldName("type")
	}
	if typeNode == nil {
		return nil
	}
	ref, ok := namedTypeRef(typeNode, sourceCode)
	if !ok {
		return nil
	}

	return &CodeUnit{
		ID:         fmt.Sprintf("%s:%s:%d", filepath, nameNode.Content(sourceCode), node.StartPoint().Row+1),
		Filepath:   filepath,
		StartLine:  int(node.StartPoint().Row + 1),
		EndLine:    int(node.EndPoint().Row + 1),
		UnitType:   "constant",
		Name:       nameNode.Content(sourceCode),
		References: []TypeRef{ref},
		Details:    GoConstDetails{Type: ref.String()},
	}
}

var directiveRe = regexp.MustCompile(`^//[a-z0-9_.-]+:\S`)

// extractDocComment returns the doc comment above node and, separately, the
// directive lines ("//tool:directive") it contains.
func (g *GoExtractor) extractDocComment(node *sitter.Node, sourceCode []byte) (string, []string) {
	var commentLines []string
	currentNode := node
	for {
		prevSibling := currentNode.PrevSibling()
		if prevSibling == nil || (currentNode.StartPoint().Row-prevSibling.EndPoint().Row > 1) {
			break
		}
		if prevSibling.Type() != "comment" {
			break
		}
		commentLines = append([]string{prevSibling.Content(sourceCode)}, commentLines...)
		currentNode = prevSibling
	}

	var docLines, markers []string
	for _, l := range commentLines {
		l = strings.TrimSpace(l)
		if directiveRe.MatchString(l) {
			markers = append(markers, strings.TrimPrefix(l, "//"))
			continue
		}
		docLines = append(docLines, l)
	}
	return strings.TrimSpace(cleanDocComment(strings.Join(docLines, "\n"))), markers
}

// collectTypeRefs walks node and returns every named type it mentions.
func collectTypeRefs(node *sitter.Node, sourceCode []byte) []TypeRef {
	var refs []TypeRef
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "type_identifier", "qualified_type":
			if ref, ok := namedTypeRef(n, sourceCode); ok {
				refs = append(refs, ref)
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(node)
	return dedupeRefs(refs)
}

// namedTypeRef unwraps pointers and generic instantiations down to a type
// name.
func namedTypeRef(n *sitter.Node, sourceCode []byte) (TypeRef, bool) {
	if n == nil {
		return TypeRef{}, false
	}
	switch n.Type() {
	case "type_identifier":
		return TypeRef{Name: n.Content(sourceCode)}, true
	case "qualified_type":
		pkgNode := n.ChildByFieldName("package")
		nameNode := n.ChildByFieldName("name")
		if pkgNode == nil || nameNode == nil {
			return TypeRef{}, false
		}
		return TypeRef{Qualifier: pkgNode.Content(sourceCode), Name: nameNode.Content(sourceCode)}, true
	case "pointer_type", "parenthesized_type":
		if n.NamedChildCount() > 0 {
			return namedTypeRef(n.NamedChild(0), sourceCode)
		}
	case "generic_type":
		return namedTypeRef(n.ChildByFieldName("type"), sourceCode)
	}
	return TypeRef{}, false
}

func receiverTypeName(receiverNode *sitter.Node, sourceCode []byte) (string, bool) {
	for i := 0; i < int(receiverNode.NamedChildCount()); i++ {
		param := receiverNode.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typeNode := param.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		pointer := typeNode.Type() == "pointer_type"
		if ref, ok := namedTypeRef(typeNode, sourceCode); ok && ref.Qualifier == "" {
			return ref.Name, pointer
		}
	}
	return "", false
}

func dedupeRefs(in []TypeRef) []TypeRef {
	seen := make(map[TypeRef]bool, len(in))
	var out []TypeRef
	for _, r := range in {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		cleaned = append(cleaned, strings.TrimSpace(l))
	}
	return strings.Join(cleaned, "\n")
}
