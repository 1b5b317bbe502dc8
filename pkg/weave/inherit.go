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

package weave

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/weave/pkg/ir"
)

// A chain names the generated check routine on the nearest ancestor
// declaring a matching contract. The descendant's own check invokes the
// routine explicitly, which is how conjunction with the ancestor's
// combined predicate is realized at run time.
type chain struct {
	class ir.ClassID
	name  string
}

// sigKey identifies a (class, member signature) pair.
type sigKey struct {
	class ir.ClassID
	sig   string
}

// combiner resolves inheritance combination. Results are computed
// lazily, once per (class, member signature) pair, and cached for the
// remainder of the weaving pass. Classes are woven bases-first, so a
// resolved routine is guaranteed to exist by the time it is referenced.
type combiner struct {
	unit *ir.Unit

	invariants map[ir.ClassID]*chain
	posts      map[sigKey]*chain
	pres       map[sigKey]*chain
}

func newCombiner(u *ir.Unit) *combiner {
	return &combiner{
		invariants: make(map[ir.ClassID]*chain),
		posts:      make(map[sigKey]*chain),
		pres:       make(map[sigKey]*chain),
		unit:       u,
	}
}

// signature renders a member's name and parameter shape for cache keys
// and ancestor matching.
func signature(m *ir.Member) string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = p.Type
	}
	return fmt.Sprintf("%s/%d:%s", m.Name, len(m.Params), strings.Join(types, ","))
}

// ancestors lists the ancestor classes of c in lookup order: the
// declared-supertype chain first, then declared interfaces depth-first,
// including interfaces declared by supertypes.
func (x *combiner) ancestors(c *ir.Class) []*ir.Class {
	var ret []*ir.Class
	seen := map[ir.ClassID]bool{c.ID: true}

	add := func(id ir.ClassID) *ir.Class {
		if seen[id] {
			return nil
		}
		seen[id] = true
		next := x.unit.Class(id)
		ret = append(ret, next)
		return next
	}

	var supers []*ir.Class
	for id := c.Super; id != ir.NoClass; {
		next := add(id)
		if next == nil {
			break
		}
		supers = append(supers, next)
		id = next.Super
	}

	var intfs func(of *ir.Class)
	intfs = func(of *ir.Class) {
		for _, id := range of.Interfaces {
			if next := add(id); next != nil {
				intfs(next)
			}
		}
	}
	intfs(c)
	for _, s := range supers {
		intfs(s)
	}
	return ret
}

// postconditionChain resolves the ancestor postcondition routine for
// the member, walking ancestors for the nearest matching signature that
// carries its own postcondition. A nil return means no chaining occurs.
//
// Constructors never chain: they do not override their ancestors'
// constructors.
func (x *combiner) postconditionChain(c *ir.Class, m *ir.Member) *chain {
	if m.Flags.Has(ir.MemberConstructor) {
		return nil
	}
	key := sigKey{c.ID, signature(m)}
	if ret, found := x.posts[key]; found {
		return ret
	}

	var ret *chain
	for _, anc := range x.ancestors(c) {
		match := anc.LookupMember(m.Name, m.Params)
		if match == nil || match.Flags.Has(ir.MemberSynthetic) {
			continue
		}
		if match.Postcondition != nil {
			// The predicate may sit on a placement the pass declined
			// to back up, such as an abstract class method. Bases weave
			// first, so a missing routine here is missing for good.
			if anc.Member(PostconditionMethodName(m.Name)) == nil {
				continue
			}
			ret = &chain{class: anc.ID, name: PostconditionMethodName(m.Name)}
			break
		}
	}
	x.posts[key] = ret
	return ret
}

// preconditionChain resolves the interface routine holding the entry
// checks an implementing member must honor when it declares no
// precondition of its own. Only interface ancestors participate:
// preconditions never propagate along the class chain, and a member's
// own precondition replaces the interface's outright.
func (x *combiner) preconditionChain(c *ir.Class, m *ir.Member) *chain {
	if m.Flags.Has(ir.MemberConstructor) {
		return nil
	}
	key := sigKey{c.ID, signature(m)}
	if ret, found := x.pres[key]; found {
		return ret
	}

	var ret *chain
	for _, anc := range x.ancestors(c) {
		if !anc.Flags.Has(ir.ClassInterface) {
			continue
		}
		match := anc.LookupMember(m.Name, m.Params)
		if match == nil || match.Flags.Has(ir.MemberSynthetic) ||
			len(match.Preconditions) == 0 {
			continue
		}
		if anc.Member(PreconditionMethodName(m.Name)) == nil {
			continue
		}
		ret = &chain{class: anc.ID, name: PreconditionMethodName(m.Name)}
		break
	}
	x.pres[key] = ret
	return ret
}

// invariantChain resolves the invariant check routine of the nearest
// ancestor declaring its own invariant. A nil return means the class's
// effective invariant is its own predicate only.
func (x *combiner) invariantChain(c *ir.Class) *chain {
	if ret, found := x.invariants[c.ID]; found {
		return ret
	}

	var ret *chain
	for _, anc := range x.ancestors(c) {
		if anc.Invariant == nil {
			continue
		}
		// An invariant on an unwoven ancestor, such as a runtime
		// class, has no routine to chain into.
		if anc.Member(InvariantMethodName(anc)) == nil {
			continue
		}
		ret = &chain{class: anc.ID, name: InvariantMethodName(anc)}
		break
	}
	x.invariants[c.ID] = ret
	return ret
}
