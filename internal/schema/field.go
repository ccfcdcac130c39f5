package schema

import (
	"github.com/Lllllllleong/ecoaction/internal/document"
)

// Type is the value type a field must hold.
type Type string

const (
	TypeString Type = "string"
	TypeNumber Type = "number"
	TypeBool   Type = "boolean"
	TypeList   Type = "list"
	TypeObject Type = "object"
)

// Field is one field rule of a schema. List fields describe their elements with Elem;
// object fields describe their members with Fields.
type Field struct {
	Name        string   `yaml:"name,omitempty"`
	Type        Type     `yaml:"type"`
	Optional    bool     `yaml:"optional,omitempty"`
	NonEmpty    bool     `yaml:"non_empty,omitempty"`
	NonNegative bool     `yaml:"non_negative,omitempty"`
	Integer     bool     `yaml:"integer,omitempty"`
	Min         *float64 `yaml:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty"`
	Enum        []string `yaml:"enum,omitempty"`
	Elem        *Field   `yaml:"elem,omitempty"`
	Fields      []Field  `yaml:"fields,omitempty"`
	AllowExtra  bool     `yaml:"allow_extra,omitempty"`

	// Default seeds the skeleton used for degraded documents. Zero values of the field
	// type are used when unset.
	Default document.Value `yaml:"-"`
}

func str(name string) Field { return Field{Name: name, Type: TypeString} }

func text(name string) Field { return Field{Name: name, Type: TypeString, NonEmpty: true} }

func num(name string) Field { return Field{Name: name, Type: TypeNumber, NonNegative: true} }

func boolean(name string) Field { return Field{Name: name, Type: TypeBool} }

func enum(name string, values ...string) Field {
	return Field{Name: name, Type: TypeString, Enum: values}
}

func strList(name string) Field {
	return Field{Name: name, Type: TypeList, Elem: &Field{Type: TypeString}}
}

func object(name string, fields ...Field) Field {
	return Field{Name: name, Type: TypeObject, Fields: fields}
}

func objectList(name string, fields ...Field) Field {
	return Field{Name: name, Type: TypeList, Elem: &Field{Type: TypeObject, Fields: fields}}
}

func (f Field) optional() Field {
	f.Optional = true
	return f
}

func (f Field) nonEmpty() Field {
	f.NonEmpty = true
	return f
}

func (f Field) integer() Field {
	f.Integer = true
	return f
}

func (f Field) between(lo, hi float64) Field {
	f.Min, f.Max = &lo, &hi
	return f
}

func (f Field) extra() Field {
	f.AllowExtra = true
	return f
}

func (f Field) withDefault(v document.Value) Field {
	f.Default = v
	return f
}

// skeleton returns the default value of f used to build a degraded document.
func (f Field) skeleton() document.Value {
	if f.Default != nil {
		return document.Clone(f.Default)
	}
	switch f.Type {
	case TypeString:
		return document.String("")
	case TypeNumber:
		return document.Number(0)
	case TypeBool:
		return document.Bool(false)
	case TypeList:
		return document.List{}
	case TypeObject:
		return skeletonOf(f.Fields)
	}
	return document.Null{}
}

func skeletonOf(fields []Field) document.Object {
	out := document.Object{}
	for _, f := range fields {
		if f.Optional && f.Default == nil {
			continue
		}
		out[f.Name] = f.skeleton()
	}
	return out
}
