package kwbind

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library is a declarative keyword library: the enums and structured
// mappings it defines, and the keywords it exposes.
type Library struct {
	Path     string
	Name     string
	Enums    []EnumDecl
	Structs  []StructDecl
	Keywords []KeywordDecl
}

type EnumDecl struct {
	Name    string
	Members []EnumMember
}

type StructDecl struct {
	Name   string
	Closed bool
	Fields []FieldDecl
}

type FieldDecl struct {
	Key      string
	Type     string
	Required bool
}

// KeywordDecl declares one keyword. Args use the ParseSignature syntax.
type KeywordDecl struct {
	Name    string
	Args    []string
	Returns string
	Doc     string
}

type libraryDisk struct {
	Library  string        `yaml:"library"`
	Enums    []enumDisk    `yaml:"enums"`
	Structs  []structDisk  `yaml:"structs"`
	Keywords []keywordDisk `yaml:"keywords"`
}

type enumDisk struct {
	Name    string           `yaml:"name"`
	Members []enumMemberDisk `yaml:"members"`
}

// enumMemberDisk accepts either a bare member name or {name, value}.
type enumMemberDisk struct {
	Name  string
	Value *yaml.Node
}

func (m *enumMemberDisk) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Name = node.Value
		return nil
	}
	var full struct {
		Name  string    `yaml:"name"`
		Value yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&full); err != nil {
		return err
	}
	m.Name = full.Name
	if full.Value.Kind != 0 {
		m.Value = &full.Value
	}
	return nil
}

type structDisk struct {
	Name   string      `yaml:"name"`
	Closed bool        `yaml:"closed"`
	Fields []fieldDisk `yaml:"fields"`
}

type fieldDisk struct {
	Key      string `yaml:"key"`
	Type     string `yaml:"type"`
	Required *bool  `yaml:"required"`
}

type keywordDisk struct {
	Name    string   `yaml:"name"`
	Args    []string `yaml:"args"`
	Returns string   `yaml:"returns"`
	Doc     string   `yaml:"doc"`
}

// LoadLibrary reads a library declaration from disk.
func LoadLibrary(path string) (*Library, error) {
	if path == "" {
		return nil, fmt.Errorf("library: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("library: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lib, err := decodeLibrary(file)
	if err != nil {
		return nil, fmt.Errorf("library: parse %s: %w", abs, err)
	}
	lib.Path = abs
	if lib.Name == "" {
		lib.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	return lib, nil
}

// ParseLibrary reads a library declaration from YAML source.
func ParseLibrary(data []byte) (*Library, error) {
	lib, err := decodeLibrary(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("library: parse: %w", err)
	}
	return lib, nil
}

func decodeLibrary(r io.Reader) (*Library, error) {
	var raw libraryDisk
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return raw.toLibrary()
}

func (d libraryDisk) toLibrary() (*Library, error) {
	lib := &Library{Name: strings.TrimSpace(d.Library)}
	for _, e := range d.Enums {
		decl := EnumDecl{Name: strings.TrimSpace(e.Name)}
		for _, m := range e.Members {
			member := EnumMember{Name: strings.TrimSpace(m.Name)}
			if m.Value != nil {
				val, err := valueFromYAML(m.Value)
				if err != nil {
					return nil, fmt.Errorf("enum %s member %s: %w", decl.Name, member.Name, err)
				}
				member.Literal = val
			} else {
				member.Literal = NewString(member.Name)
			}
			decl.Members = append(decl.Members, member)
		}
		lib.Enums = append(lib.Enums, decl)
	}
	for _, s := range d.Structs {
		decl := StructDecl{Name: strings.TrimSpace(s.Name), Closed: s.Closed}
		for _, f := range s.Fields {
			field := FieldDecl{Key: strings.TrimSpace(f.Key), Type: strings.TrimSpace(f.Type), Required: true}
			if f.Required != nil {
				field.Required = *f.Required
			}
			if field.Type == "" {
				field.Type = "any"
			}
			decl.Fields = append(decl.Fields, field)
		}
		lib.Structs = append(lib.Structs, decl)
	}
	for _, k := range d.Keywords {
		lib.Keywords = append(lib.Keywords, KeywordDecl{
			Name:    strings.TrimSpace(k.Name),
			Args:    k.Args,
			Returns: strings.TrimSpace(k.Returns),
			Doc:     strings.TrimSpace(k.Doc),
		})
	}
	return lib, nil
}

// InstallLibrary registers the library's types, in declaration order, and
// then its keywords. Keywords are installed without implementations; use
// Implement to attach them.
func (e *Engine) InstallLibrary(lib *Library) error {
	reg := e.registry
	for _, decl := range lib.Enums {
		ty, err := NewEnum(decl.Name, decl.Members...)
		if err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
		ty.Module = lib.Name
		if err := reg.Register(ty); err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
	}
	for _, decl := range lib.Structs {
		fields := make([]Field, len(decl.Fields))
		for i, f := range decl.Fields {
			ty, err := reg.ParseType(f.Type)
			if err != nil {
				return fmt.Errorf("library %s: struct %s field %s: %w", lib.Name, decl.Name, f.Key, err)
			}
			fields[i] = Field{Key: f.Key, Type: ty, Required: f.Required}
		}
		ty, err := NewStruct(decl.Name, decl.Closed, fields...)
		if err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
		ty.Module = lib.Name
		if err := reg.Register(ty); err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
	}
	for _, decl := range lib.Keywords {
		sig, err := reg.ParseSignature(decl.Args...)
		if err != nil {
			return fmt.Errorf("library %s: keyword '%s': %w", lib.Name, decl.Name, err)
		}
		kw := &Keyword{Name: decl.Name, Library: lib.Name, Doc: decl.Doc, Signature: sig}
		if decl.Returns != "" {
			ret, err := reg.ParseType(decl.Returns)
			if err != nil {
				return fmt.Errorf("library %s: keyword '%s' return type: %w", lib.Name, decl.Name, err)
			}
			kw.ReturnType = ret
		}
		if err := e.RegisterKeyword(kw); err != nil {
			return err
		}
	}
	return nil
}
