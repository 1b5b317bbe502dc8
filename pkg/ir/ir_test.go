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

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddClass(t *testing.T) {
	a := assert.New(t)

	u := NewUnit("unit")
	id, err := u.AddClass(&Class{Name: "A", Super: NoClass})
	a.NoError(err)
	a.Equal(ClassID(0), id)

	_, err = u.AddClass(&Class{Name: "A", Super: NoClass})
	if a.Error(err) {
		a.Contains(err.Error(), `duplicate class "A"`)
	}

	got, ok := u.Lookup("A")
	a.True(ok)
	a.Equal(id, got)
	_, ok = u.Lookup("B")
	a.False(ok)
}

func TestAddMemberBackref(t *testing.T) {
	a := assert.New(t)

	u := NewUnit("unit")
	c := &Class{Name: "A", Super: NoClass}
	c.Members = append(c.Members, &Member{Name: "early"})
	_, err := u.AddClass(c)
	require.NoError(t, err)
	c.AddMember(&Member{Name: "late"})

	// Both pre-registered and appended members point back at the class.
	a.Equal(c.ID, c.Member("early").DeclaredOn)
	a.Equal(c.ID, c.Member("late").DeclaredOn)
}

func TestLookupMember(t *testing.T) {
	a := assert.New(t)

	c := &Class{Name: "A", Super: NoClass}
	c.Members = []*Member{
		{Name: "f"},
		{Name: "f", Params: []Param{{Name: "x", Type: "int"}}},
		{Name: "f", Params: []Param{{Name: "x", Type: "string"}}},
	}

	a.Same(c.Members[0], c.LookupMember("f", nil))
	a.Same(c.Members[1], c.LookupMember("f", []Param{{Type: "int"}}))
	a.Same(c.Members[2], c.LookupMember("f", []Param{{Type: "string"}}))
	// An unspecified type matches the first member of the right arity.
	a.Same(c.Members[1], c.LookupMember("f", []Param{{Name: "y"}}))
	a.Nil(c.LookupMember("f", []Param{{Type: "bool"}}))
	a.Nil(c.LookupMember("g", nil))
}

func TestReturnsValue(t *testing.T) {
	a := assert.New(t)

	a.False((&Member{Name: "f"}).ReturnsValue())
	a.True((&Member{Name: "f", ReturnType: "int"}).ReturnsValue())
	// Constructors yield the instance, not a value.
	a.False((&Member{
		Name:       "<init>",
		Flags:      MemberConstructor,
		ReturnType: "A",
	}).ReturnsValue())
}

func TestInheritanceOrder(t *testing.T) {
	a := assert.New(t)

	// A classic diamond, declared descendants-first to force reordering.
	//
	//      I
	//     / \
	//    B   C
	//     \ /
	//      D
	u := NewUnit("unit")
	d := &Class{Name: "D", Super: NoClass}
	b := &Class{Name: "B", Super: NoClass}
	c := &Class{Name: "C", Super: NoClass}
	i := &Class{Name: "I", Super: NoClass, Flags: ClassInterface}
	for _, cls := range []*Class{d, b, c, i} {
		_, err := u.AddClass(cls)
		require.NoError(t, err)
	}
	d.Super = b.ID
	d.Interfaces = []ClassID{c.ID}
	b.Interfaces = []ClassID{i.ID}
	c.Interfaces = []ClassID{i.ID}

	order, err := u.InheritanceOrder()
	require.NoError(t, err)
	a.Len(order, 4)

	pos := make(map[ClassID]int, len(order))
	for idx, id := range order {
		pos[id] = idx
	}
	a.Less(pos[b.ID], pos[d.ID])
	a.Less(pos[c.ID], pos[d.ID])
	a.Less(pos[i.ID], pos[b.ID])
	a.Less(pos[i.ID], pos[c.ID])
}

func TestInheritanceCycle(t *testing.T) {
	a := assert.New(t)

	u := NewUnit("unit")
	x := &Class{Name: "A", Super: NoClass}
	y := &Class{Name: "B", Super: NoClass}
	for _, cls := range []*Class{x, y} {
		_, err := u.AddClass(cls)
		require.NoError(t, err)
	}
	x.Super = y.ID
	y.Super = x.ID

	_, err := u.InheritanceOrder()
	if a.Error(err) {
		a.Contains(err.Error(), "cyclic inheritance: A -> B -> A")
	}
}
