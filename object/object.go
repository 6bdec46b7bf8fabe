// Package object provides the operand types manipulated by the portvm
// virtual machine.
//
// The VM stack holds object.Object values rather than raw machine words, so
// type errors are detected rather than silently coerced. An object.Object
// will often be type asserted to a specific operand type:
//
//	switch obj := obj.(type) {
//	case *object.Int:
//		// do something with obj.Value()
//	case *object.String:
//		// do something with obj.Value()
//	}
package object

// Type of an object as a string.
type Type string

// Type constants
const (
	INT    Type = "int"
	STRING Type = "string"
)

// Object is the interface that all operand types must implement.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns a string representation of the given object.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() interface{}

	// Equals returns true if the given object is equal to this object.
	Equals(other Object) bool
}
