package treesitter

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/quill/internal/text"
)

// SymbolKind classifies outline entries.
type SymbolKind int

const (
	KindPackage SymbolKind = iota
	KindImport
	KindFunction
	KindMethod
	KindType
	KindStruct
	KindInterface
	KindConst
	KindVar
	KindClass
)

func (k SymbolKind) String() string {
	switch k {
	case KindPackage:
		return "pkg"
	case KindImport:
		return "import"
	case KindFunction:
		return "func"
	case KindMethod:
		return "method"
	case KindType:
		return "type"
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Symbol is one declaration found in a layer, used for structural
// navigation.
type Symbol struct {
	Name      string
	Kind      SymbolKind
	Signature string
	Range     text.ByteRange
	Receiver  string
	Language  string
	Children  []Symbol
}

type outliner func(root *sitter.Node, src []byte) []Symbol

var outliners = map[string]outliner{
	"go":         outlineGo,
	"javascript": outlineJS,
}

// Outline lists top-level declarations of every layer whose language has an
// outliner, in document order.
func (t *Tree) Outline(src []byte) []Symbol {
	var syms []Symbol
	for _, info := range t.Layers() {
		fn, ok := outliners[info.Language]
		if !ok {
			continue
		}
		for _, s := range fn(t.get(info.Handle).tree.RootNode(), src) {
			s.Language = info.Language
			syms = append(syms, s)
		}
	}
	return syms
}

func outlineGo(root *sitter.Node, src []byte) []Symbol {
	var syms []Symbol
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "package_clause":
			if nc := child.NamedChild(0); nc != nil {
				syms = append(syms, symbolOf(child, nc.Content(src), KindPackage))
			}
		case "import_declaration":
			syms = append(syms, symbolOf(child, strings.TrimSpace(child.Content(src)), KindImport))
		case "function_declaration":
			s := symbolOf(child, fieldContent(child, "name", src), KindFunction)
			s.Signature = goSignature("", s.Name, child, src)
			syms = append(syms, s)
		case "method_declaration":
			s := symbolOf(child, fieldContent(child, "name", src), KindMethod)
			recv := fieldContent(child, "receiver", src)
			s.Receiver = goReceiverType(child.ChildByFieldName("receiver"), src)
			s.Signature = goSignature(recv, s.Name, child, src)
			syms = append(syms, s)
		case "type_declaration":
			syms = append(syms, goTypeSpecs(child, src)...)
		case "const_declaration":
			syms = append(syms, goSpecs(child, "const_spec", KindConst, src)...)
		case "var_declaration":
			syms = append(syms, goSpecs(child, "var_spec", KindVar, src)...)
		}
	}
	return syms
}

func goTypeSpecs(decl *sitter.Node, src []byte) []Symbol {
	var syms []Symbol
	for i := 0; i < int(decl.ChildCount()); i++ {
		spec := decl.Child(i)
		if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
			continue
		}
		s := symbolOf(spec, fieldContent(spec, "name", src), KindType)
		if typ := spec.ChildByFieldName("type"); typ != nil {
			switch typ.Type() {
			case "struct_type":
				s.Kind = KindStruct
				s.Children = goFields(typ, src)
			case "interface_type":
				s.Kind = KindInterface
			}
			s.Signature = "type " + s.Name + " " + typ.Type()
		}
		syms = append(syms, s)
	}
	return syms
}

func goFields(structType *sitter.Node, src []byte) []Symbol {
	var fields []Symbol
	for i := 0; i < int(structType.ChildCount()); i++ {
		list := structType.Child(i)
		if list.Type() != "field_declaration_list" {
			continue
		}
		for j := 0; j < int(list.ChildCount()); j++ {
			decl := list.Child(j)
			if decl.Type() != "field_declaration" || decl.ChildByFieldName("name") == nil {
				continue
			}
			f := symbolOf(decl, fieldContent(decl, "name", src), KindVar)
			f.Signature = strings.TrimSpace(f.Name + " " + fieldContent(decl, "type", src))
			fields = append(fields, f)
		}
	}
	return fields
}

func goSpecs(decl *sitter.Node, specType string, kind SymbolKind, src []byte) []Symbol {
	var syms []Symbol
	for i := 0; i < int(decl.ChildCount()); i++ {
		spec := decl.Child(i)
		if spec.Type() == specType && spec.ChildByFieldName("name") != nil {
			syms = append(syms, symbolOf(spec, fieldContent(spec, "name", src), kind))
		}
	}
	return syms
}

func goReceiverType(receiver *sitter.Node, src []byte) string {
	if receiver == nil {
		return ""
	}
	for i := 0; i < int(receiver.ChildCount()); i++ {
		if p := receiver.Child(i); p.Type() == "parameter_declaration" {
			return fieldContent(p, "type", src)
		}
	}
	return ""
}

func goSignature(receiver, name string, fn *sitter.Node, src []byte) string {
	var b strings.Builder
	b.WriteString("func ")
	if receiver != "" {
		b.WriteString(receiver)
		b.WriteByte(' ')
	}
	b.WriteString(name)
	b.WriteString(fieldContent(fn, "parameters", src))
	if result := fieldContent(fn, "result", src); result != "" {
		b.WriteByte(' ')
		b.WriteString(result)
	}
	return b.String()
}

func outlineJS(root *sitter.Node, src []byte) []Symbol {
	var syms []Symbol
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "export_statement" {
			if decl := child.ChildByFieldName("declaration"); decl != nil {
				child = decl
			}
		}
		switch child.Type() {
		case "function_declaration":
			s := symbolOf(child, fieldContent(child, "name", src), KindFunction)
			s.Signature = "function " + s.Name + fieldContent(child, "parameters", src)
			syms = append(syms, s)
		case "class_declaration":
			s := symbolOf(child, fieldContent(child, "name", src), KindClass)
			if body := child.ChildByFieldName("body"); body != nil {
				for j := 0; j < int(body.ChildCount()); j++ {
					if m := body.Child(j); m.Type() == "method_definition" {
						s.Children = append(s.Children, symbolOf(m, fieldContent(m, "name", src), KindMethod))
					}
				}
			}
			syms = append(syms, s)
		case "lexical_declaration", "variable_declaration":
			for j := 0; j < int(child.ChildCount()); j++ {
				if d := child.Child(j); d.Type() == "variable_declarator" {
					syms = append(syms, symbolOf(d, fieldContent(d, "name", src), KindVar))
				}
			}
		}
	}
	return syms
}

func symbolOf(n *sitter.Node, name string, kind SymbolKind) Symbol {
	return Symbol{Name: name, Kind: kind, Range: nodeRange(n)}
}

func fieldContent(n *sitter.Node, field string, src []byte) string {
	if c := n.ChildByFieldName(field); c != nil {
		return c.Content(src)
	}
	return ""
}

// FormatOutline renders symbols one per line, children indented, with the
// 1-based row produced by rowOf.
func FormatOutline(syms []Symbol, rowOf func(byteOffset int) int) string {
	var b strings.Builder
	var write func(s Symbol, depth int)
	write = func(s Symbol, depth int) {
		label := s.Name
		if s.Signature != "" {
			label = s.Signature
		}
		fmt.Fprintf(&b, "%s%-9s %s:%d\n", strings.Repeat("  ", depth), s.Kind, label, rowOf(s.Range.Start)+1)
		for _, c := range s.Children {
			write(c, depth+1)
		}
	}
	for _, s := range syms {
		write(s, 0)
	}
	return b.String()
}
