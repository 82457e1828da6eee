package entity

import (
	"fmt"
	"sort"
	"strings"

	gotreesitter "github.com/odvcencio/gotreesitter"
	"github.com/odvcencio/gotreesitter/grammars"
	classify "github.com/odvcencio/gts-suite/pkg/lang/treesitter"
)

// Shared node-type classification tables from the tree-sitter grammar suite.
// The region extractor and interstitial merger, not this plugin, are
// responsible for preamble and import handling (see pkg/region and
// pkg/interstitial) — this plugin only needs to recognize
// declaration nodes and the identifiers inside them.
var (
	declarationTypes    = classify.DeclarationNodeTypes
	nameIdentifierTypes = classify.NameIdentifierTypes
)

// TreeSitterPlugin is the reference Plugin implementation: it parses source
// with tree-sitter and returns one Entity per top-level (and nested
// container-member) declaration.
type TreeSitterPlugin struct {
	language string
}

// ExtractEntities implements Plugin.
func (p *TreeSitterPlugin) ExtractEntities(text, path string) ([]Entity, error) {
	source := []byte(text)
	if len(source) == 0 {
		return nil, nil
	}

	bt, err := grammars.ParseFile(path, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer bt.Release()

	root := bt.RootNode()
	childCount := root.ChildCount()
	if childCount == 0 {
		return nil, nil
	}

	var declNodes []*gotreesitter.Node
	for i := 0; i < childCount; i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		collectDeclarationNodes(bt, child, &declNodes)
	}

	sort.Slice(declNodes, func(i, j int) bool {
		return declNodes[i].StartByte() < declNodes[j].StartByte()
	})

	counters := make(map[string]int)
	entities := make([]Entity, 0, len(declNodes))
	for _, node := range declNodes {
		declKind := bt.NodeType(node)
		name, receiver := extractNameAndReceiver(bt, node)
		startLine := int(node.StartPoint().Row) + 1
		endLine := int(node.EndPoint().Row) + 1
		content := bt.NodeText(node)

		baseKey := identityBaseKey(declKind, receiver, name, signatureOf(content))
		ordinal := counters[baseKey]
		counters[baseKey] = ordinal + 1

		entities = append(entities, Entity{
			Identity:    fmt.Sprintf("%s:%d", baseKey, ordinal),
			Name:        name,
			Type:        shortKind(declKind),
			ContentHash: HashContent(content),
			StartLine:   startLine,
			EndLine:     endLine,
			Content:     content,
		})
	}

	return entities, nil
}

// collectDeclarationNodes walks node's subtree, emitting a declaration node
// for every recognized declaration. Members nested inside a container
// declaration (class/struct/interface/...) are emitted as siblings of the
// container rather than folded into it, so a change to one method doesn't
// collide with a change to another method of the same class.
func collectDeclarationNodes(bt *gotreesitter.BoundTree, node *gotreesitter.Node, out *[]*gotreesitter.Node) {
	nodeType := bt.NodeType(node)
	if isDeclarationNode(bt, node) {
		*out = append(*out, node)
		if isContainerDeclaration(nodeType) {
			for i := 0; i < node.ChildCount(); i++ {
				child := node.Child(i)
				if child == nil {
					continue
				}
				collectDeclarationNodes(bt, child, out)
			}
		}
		return
	}
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		collectDeclarationNodes(bt, child, out)
	}
}

func isDeclarationNode(bt *gotreesitter.BoundTree, node *gotreesitter.Node) bool {
	nodeType := bt.NodeType(node)
	if declarationTypes[nodeType] {
		return true
	}
	if nodeType == "method_definition" {
		return true
	}
	if !node.IsNamed() || !looksLikeDeclarationNodeType(nodeType) {
		return false
	}
	return hasNameIdentifierDescendant(bt, node)
}

func looksLikeDeclarationNodeType(nodeType string) bool {
	return strings.Contains(nodeType, "declaration") || strings.Contains(nodeType, "definition")
}

func hasNameIdentifierDescendant(bt *gotreesitter.BoundTree, node *gotreesitter.Node) bool {
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if nameIdentifierTypes[bt.NodeType(child)] {
			return true
		}
		if hasNameIdentifierDescendant(bt, child) {
			return true
		}
	}
	return false
}

var containerDeclarationNodeTypes = map[string]bool{
	"class_definition":      true,
	"class_declaration":     true,
	"interface_declaration": true,
	"struct_declaration":    true,
	"struct_item":           true,
	"enum_declaration":      true,
	"enum_item":             true,
	"trait_declaration":     true,
	"trait_item":            true,
	"impl_item":             true,
	"object_declaration":    true,
	"record_declaration":    true,
	"protocol_declaration":  true,
}

func isContainerDeclaration(nodeType string) bool {
	return containerDeclarationNodeTypes[nodeType]
}

// extractNameAndReceiver mirrors the per-language structural rules a
// tree-sitter-backed extractor needs: the declaration name lives in
// different child positions depending on the grammar.
func extractNameAndReceiver(bt *gotreesitter.BoundTree, node *gotreesitter.Node) (name, receiver string) {
	switch bt.NodeType(node) {
	case "method_declaration":
		return extractGoMethodNameReceiver(bt, node)
	case "type_declaration":
		return extractGoTypeName(bt, node), ""
	case "var_declaration", "const_declaration":
		return extractGoVarConstName(bt, node), ""
	case "decorated_definition":
		return extractWrappedName(bt, node, "function_definition", "class_definition"), ""
	case "export_statement":
		return extractWrappedName(bt, node, "function_declaration", "class_declaration", "interface_declaration", "lexical_declaration", "type_alias_declaration"), ""
	case "function_declaration", "function_definition", "function_item":
		if n := extractFirstIdentifierName(bt, node); n != "" {
			return n, ""
		}
		return extractDeclaratorName(bt, node), ""
	default:
		return extractFirstIdentifierName(bt, node), ""
	}
}

func extractDeclaratorName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	declaratorTypes := map[string]bool{"function_declarator": true, "init_declarator": true}
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if declaratorTypes[bt.NodeType(child)] {
			return extractFirstIdentifierName(bt, child)
		}
	}
	return ""
}

func extractFirstIdentifierName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if nameIdentifierTypes[bt.NodeType(child)] {
			return bt.NodeText(child)
		}
		if nested := extractFirstIdentifierName(bt, child); nested != "" {
			return nested
		}
	}
	return ""
}

func extractGoMethodNameReceiver(bt *gotreesitter.BoundTree, node *gotreesitter.Node) (name, receiver string) {
	seenFirstParamList := false
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		childType := bt.NodeType(child)
		if childType == "parameter_list" && !seenFirstParamList {
			receiver = extractReceiverText(bt, child)
			seenFirstParamList = true
			continue
		}
		if childType == "field_identifier" || nameIdentifierTypes[childType] {
			name = bt.NodeText(child)
			break
		}
	}
	return
}

func extractReceiverText(bt *gotreesitter.BoundTree, paramList *gotreesitter.Node) string {
	for i := 0; i < paramList.NamedChildCount(); i++ {
		child := paramList.NamedChild(i)
		if bt.NodeType(child) == "parameter_declaration" {
			return bt.NodeText(child)
		}
	}
	text := bt.NodeText(paramList)
	if len(text) >= 2 && text[0] == '(' && text[len(text)-1] == ')' {
		return text[1 : len(text)-1]
	}
	return text
}

func extractGoTypeName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if bt.NodeType(child) == "type_spec" {
			for j := 0; j < child.NamedChildCount(); j++ {
				gc := child.NamedChild(j)
				if bt.NodeType(gc) == "type_identifier" {
					return bt.NodeText(gc)
				}
			}
		}
	}
	return extractFirstIdentifierName(bt, node)
}

func extractGoVarConstName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		childType := bt.NodeType(child)
		if childType == "var_spec" || childType == "const_spec" {
			return extractFirstIdentifierName(bt, child)
		}
	}
	return extractFirstIdentifierName(bt, node)
}

func extractWrappedName(bt *gotreesitter.BoundTree, node *gotreesitter.Node, wrappedTypes ...string) string {
	wanted := make(map[string]bool, len(wrappedTypes))
	for _, t := range wrappedTypes {
		wanted[t] = true
	}
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		childType := bt.NodeType(child)
		if wanted[childType] {
			name, _ := extractNameAndReceiver(bt, child)
			if name != "" {
				return name
			}
		}
		if nameIdentifierTypes[childType] {
			return bt.NodeText(child)
		}
	}
	return extractFirstIdentifierName(bt, node)
}

// signatureOf normalizes a declaration's header line for identity purposes:
// everything up to the first "{" or newline, whitespace-collapsed.
func signatureOf(content string) string {
	text := strings.TrimSpace(content)
	if text == "" {
		return ""
	}
	if idx := strings.Index(text, "{"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	return strings.Join(strings.Fields(text), " ")
}

func identityBaseKey(declKind, receiver, name, signature string) string {
	sig := signature
	if sig == "" {
		sig = "-"
	}
	return "decl:" + declKind + ":" + receiver + ":" + name + ":" + sig
}

func shortKind(declKind string) string {
	switch declKind {
	case "function_declaration", "function_definition", "function_item":
		return "function"
	case "method_declaration", "method_definition":
		return "method"
	case "type_declaration", "type_spec":
		return "type"
	case "class_definition", "class_declaration":
		return "class"
	case "struct_item", "struct_declaration":
		return "struct"
	case "enum_item", "enum_declaration":
		return "enum"
	case "trait_item", "trait_declaration":
		return "trait"
	case "impl_item":
		return "impl"
	case "interface_declaration", "protocol_declaration":
		return "interface"
	case "var_declaration":
		return "var"
	case "const_declaration":
		return "const"
	default:
		return declKind
	}
}

// detectLanguage reports the tree-sitter grammar name concord would use for
// path, and whether one is registered.
func detectLanguage(path string) (string, bool) {
	entry := grammars.DetectLanguage(path)
	if entry == nil {
		return "", false
	}
	return entry.Name, true
}
