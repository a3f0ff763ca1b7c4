// Package model describes managed classes and the field access contract that
// the state manager uses to read, write, clear and snapshot instance fields.
package model

import (
	"fmt"
	"reflect"
)

// Field describes one persistent field of a managed class.
type Field struct {
	Name string
	Type reflect.Type
}

// FieldOf declares a field whose values have type T.
func FieldOf[T any](name string) Field {
	return Field{Name: name, Type: reflect.TypeFor[T]()}
}

// Class is the metadata of a managed type: its name, the ordered list of
// persistent fields and a factory used when an instance is loaded by identity.
type Class struct {
	Name   string
	Fields []Field
	New    func() Instance

	index map[string]int
}

// NewClass creates a class description. Field indices follow the order given.
func NewClass(name string, newFn func() Instance, fields ...Field) *Class {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f.Name] = i
	}
	return &Class{
		Name:   name,
		Fields: fields,
		New:    newFn,
		index:  idx,
	}
}

// NumFields returns the number of persistent fields.
func (c *Class) NumFields() int {
	return len(c.Fields)
}

// FieldIndex returns the index of the named field.
func (c *Class) FieldIndex(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// MustFieldIndex is like FieldIndex but panics for unknown names.
func (c *Class) MustFieldIndex(name string) int {
	i, ok := c.index[name]
	if !ok {
		panic(fmt.Sprintf("class %s has no field %q", c.Name, name))
	}
	return i
}

// Zero returns the zero value of field i.
func (c *Class) Zero(i int) any {
	t := c.Fields[i].Type
	if t == nil {
		return nil
	}
	return reflect.Zero(t).Interface()
}

// String implements fmt.Stringer
func (c *Class) String() string {
	return c.Name
}

// Instance is implemented by every managed object. ProvideField and
// ReplaceField play the role of generated field accessors: the state manager
// never touches instance memory any other way.
type Instance interface {
	Class() *Class
	ProvideField(i int) any
	ReplaceField(i int, v any)
}

// PreDeleter is implemented by instances that want a callback before they
// are deleted.
type PreDeleter interface {
	PreDelete()
}
