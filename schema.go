package ordkv

import "fmt"

// Schema is the ordered, immutable sequence of field types defining a
// table's key shape. Create one per table and share it freely; it holds no
// mutable state.
type Schema struct {
	fields []FieldType
	framed []bool
}

// NewSchema builds a key schema from an ordered list of field types.
// Every variable-width field except the last one gets framed (escaped and
// terminated); the last field needs no framing and is decoded greedily.
// Panics on an invalid field list, since schemas are static configuration.
func NewSchema(fields ...FieldType) *Schema {
	if len(fields) == 0 {
		panic("ordkv: schema needs at least one field")
	}
	s := &Schema{
		fields: make([]FieldType, len(fields)),
		framed: make([]bool, len(fields)),
	}
	copy(s.fields, fields)
	for i, ft := range fields {
		if ft.kind == kindInvalid {
			panic(fmt.Errorf("ordkv: schema field %d has invalid type", i))
		}
		s.framed[i] = ft.variable() && i < len(fields)-1
	}
	return s
}

// Len returns the number of fields in the schema.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field returns the type of field i.
func (s *Schema) Field(i int) FieldType {
	return s.fields[i]
}

func (s *Schema) String() string {
	var buf []byte
	buf = append(buf, '[')
	for i, ft := range s.fields {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, ft.String()...)
	}
	buf = append(buf, ']')
	return string(buf)
}
