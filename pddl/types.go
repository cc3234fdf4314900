package pddl

import "strings"

// ObjectTypeName is the implicit root of every type hierarchy.
const ObjectTypeName = "object"

// Type is a node in a single-rooted subtype lattice.
type Type struct {
	Name   string
	Parent *Type
}

// NewType declares a type. A nil parent attaches it to the implicit root.
func NewType(name string, parent *Type) *Type {
	return &Type{Name: name, Parent: parent}
}

// IsSubtypeOf reports whether t is other or one of its descendants.
// Every type is a subtype of the implicit root.
func (t *Type) IsSubtypeOf(other *Type) bool {
	if other == nil || other.Name == ObjectTypeName {
		return true
	}
	for cur := t; cur != nil; cur = cur.Parent {
		if cur.Name == other.Name {
			return true
		}
	}
	return false
}

// ParentName returns the name of the parent type, or the implicit root.
func (t *Type) ParentName() string {
	if t.Parent == nil {
		return ObjectTypeName
	}
	return t.Parent.Name
}

// Instance creates a named object of this type.
func (t *Type) Instance(name string) Instance {
	return Instance{Name: name, Type: t}
}

// Variable creates a parameter of this type. The "?" prefix is added when missing.
func (t *Type) Variable(name string) Instance {
	if !strings.HasPrefix(name, "?") {
		name = "?" + name
	}
	return Instance{Name: name, Type: t}
}

func (t *Type) String() string {
	if t == nil {
		return ObjectTypeName
	}
	return t.Name
}

// Instance is a named, typed object. Equality is by name and type name.
type Instance struct {
	Name string
	Type *Type
}

func (Instance) expression() {}

// Key identifies the instance in sets.
func (i Instance) Key() string { return i.Name + " - " + i.TypeName() }

// TypeName returns the name of the instance type.
func (i Instance) TypeName() string { return i.Type.String() }

// IsVariable reports whether the instance is a parameter placeholder.
func (i Instance) IsVariable() bool { return strings.HasPrefix(i.Name, "?") }

// Declaration renders "name - type".
func (i Instance) Declaration() string { return i.Key() }

// Equal compares name and type name.
func (i Instance) Equal(o Instance) bool { return i.Key() == o.Key() }

func (i Instance) String() string { return i.Name }

// TypeIndex resolves types by name.
type TypeIndex map[string]*Type

// NewTypeIndex indexes the given types.
func NewTypeIndex(types ...*Type) TypeIndex {
	idx := make(TypeIndex, len(types))
	for _, t := range types {
		idx[t.Name] = t
	}
	return idx
}

// Lookup returns the named type.
func (idx TypeIndex) Lookup(name string) (*Type, bool) {
	t, ok := idx[name]
	return t, ok
}
