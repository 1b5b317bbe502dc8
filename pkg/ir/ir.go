// Copyright 2019 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package ir models one compilation unit's declarations as an arena of
// classes. The front-end collaborator populates the arena; the weaving
// pass mutates it in place, extending member bodies and member lists.
//
// All references between declarations are arena indices (ClassID), not
// pointers, so that synthesized members can be added while ancestor
// chains are being walked.
package ir

import (
	"fmt"

	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/pkg/errors"
)

// ClassID indexes a class within its Unit. IDs are stable for the
// lifetime of the unit.
type ClassID int

// NoClass marks the absence of a class reference, such as the supertype
// of a root class.
const NoClass ClassID = -1

// ClassFlags describe properties of a class declaration as reported by
// the front end.
type ClassFlags uint8

const (
	// ClassSynthetic marks a compiler-generated artifact.
	ClassSynthetic ClassFlags = 1 << iota
	// ClassInterface marks an interface declaration.
	ClassInterface
	// ClassEnum marks an enumeration.
	ClassEnum
	// ClassGeneric marks a generic type placeholder.
	ClassGeneric
	// ClassScript marks a top-level script body.
	ClassScript
	// ClassComponent marks a dependency-injection-managed component.
	// Such classes skip synthetic setter wrapping but still receive
	// constructor-time invariant checks.
	ClassComponent
)

// MemberFlags describe properties of a member declaration.
type MemberFlags uint8

const (
	// MemberSynthetic marks a member generated by a compiler or by the
	// weaving pass itself. Synthetic members are never candidates for
	// further weaving.
	MemberSynthetic MemberFlags = 1 << iota
	// MemberAbstract marks a member without a body.
	MemberAbstract
	// MemberStatic marks a member without instance state.
	MemberStatic
	// MemberConstructor marks a constructor.
	MemberConstructor
	// MemberPublic marks a publicly visible member.
	MemberPublic
)

// A Param is a named, typed method parameter.
type Param struct {
	Name string
	Type string
}

// A Property is a field-backed property of a class. The runtime slot
// holding its value shares the property's name.
type Property struct {
	// ClosureShared marks a variable captured by a closure.
	ClosureShared bool
	// HasSetter reports that the front end saw an explicit setter, so
	// the weaver must not generate one.
	HasSetter bool
	// InStaticInit marks a property declared inside a static
	// initializer.
	InStaticInit bool
	Name         string
	Public       bool
	Static       bool
	Type         string
}

// A Member is a method or constructor. Its body is an ordered statement
// sequence which the weaving pass rewrites in place.
type Member struct {
	Body []Stmt
	// DeclaredOn is a back-reference to the declaring class.
	DeclaredOn ClassID
	Flags      MemberFlags
	Name       string
	Params     []Param
	// Postcondition is the member's own postcondition, if any.
	Postcondition *contract.Predicate
	// Preconditions are the member's own preconditions, in declaration
	// order. They are conjoined: each is checked in sequence and the
	// first failure aborts.
	Preconditions []*contract.Predicate
	// ReturnType is empty for members that return no value.
	ReturnType string
}

// ReturnsValue reports whether the member returns a value.
func (m *Member) ReturnsValue() bool {
	return m.ReturnType != "" && !m.Flags.Has(MemberConstructor)
}

// Has reports whether all given flags are set.
func (f MemberFlags) Has(flags MemberFlags) bool { return f&flags == flags }

// Has reports whether all given flags are set.
func (f ClassFlags) Has(flags ClassFlags) bool { return f&flags == flags }

// A Class is a single type declaration: its supertype, interfaces,
// properties, members and at most one invariant predicate.
type Class struct {
	Flags ClassFlags
	// ID is assigned by Unit.AddClass.
	ID         ClassID
	Interfaces []ClassID
	// Invariant is the class's own invariant predicate, if any.
	Invariant *contract.Predicate
	Members   []*Member
	Name      string
	Props     []*Property
	// Super is the declared supertype, or NoClass.
	Super ClassID
}

// AddMember appends a member and fixes up its back-reference.
func (c *Class) AddMember(m *Member) {
	m.DeclaredOn = c.ID
	c.Members = append(c.Members, m)
}

// Member returns the first member with the given name, or nil.
func (c *Class) Member(name string) *Member {
	for _, m := range c.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// LookupMember returns the first member compatible with the given name
// and parameter list, or nil. Parameters are compatible when arity
// matches and each pair of declared types is equal or either side left
// its type unspecified.
func (c *Class) LookupMember(name string, params []Param) *Member {
	for _, m := range c.Members {
		if m.Name != name || len(m.Params) != len(params) {
			continue
		}
		ok := true
		for i, p := range params {
			if p.Type != "" && m.Params[i].Type != "" && p.Type != m.Params[i].Type {
				ok = false
				break
			}
		}
		if ok {
			return m
		}
	}
	return nil
}

// Constructors returns the class's declared constructors.
func (c *Class) Constructors() []*Member {
	var ret []*Member
	for _, m := range c.Members {
		if m.Flags.Has(MemberConstructor) {
			ret = append(ret, m)
		}
	}
	return ret
}

// String is for debugging use only.
func (c *Class) String() string {
	return fmt.Sprintf("class %s (%d members, %d props)",
		c.Name, len(c.Members), len(c.Props))
}

// A Unit is one compilation unit's worth of declarations. It has a
// single writer during the weaving pass and no concurrent readers.
type Unit struct {
	Name string

	byName  map[string]ClassID
	classes []*Class
}

// NewUnit constructs an empty Unit.
func NewUnit(name string) *Unit {
	return &Unit{
		Name:   name,
		byName: make(map[string]ClassID),
	}
}

// AddClass registers a class in the arena and assigns its ID. Class
// names must be unique within a unit.
func (u *Unit) AddClass(c *Class) (ClassID, error) {
	if _, dup := u.byName[c.Name]; dup {
		return NoClass, errors.Errorf("duplicate class %q in unit %s", c.Name, u.Name)
	}
	id := ClassID(len(u.classes))
	c.ID = id
	for _, m := range c.Members {
		m.DeclaredOn = id
	}
	u.classes = append(u.classes, c)
	u.byName[c.Name] = id
	return id, nil
}

// Class returns the class with the given ID.
func (u *Unit) Class(id ClassID) *Class {
	return u.classes[id]
}

// Classes returns all classes in declaration order. The returned slice
// is shared with the arena and must not be reordered.
func (u *Unit) Classes() []*Class {
	return u.classes
}

// Lookup resolves a class name.
func (u *Unit) Lookup(name string) (ClassID, bool) {
	id, ok := u.byName[name]
	return id, ok
}
