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
	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/cockroachdb/weave/pkg/ir"
	"github.com/pkg/errors"
)

// PreconditionMethodName returns the name of the generated routine
// holding an interface member's entry checks. Implementing classes
// invoke it when the implementation declares no precondition of its
// own.
func PreconditionMethodName(member string) string {
	return "$precondition$" + member
}

// weavePreconditions rewrites each precondition-bearing member of the
// class so that its predicates are evaluated before any statement of
// the original body. Multiple preconditions conjoin in declaration
// order; the first failure aborts before later predicates run.
//
// A precondition declares no relationship to ancestor preconditions:
// each class's own declared preconditions apply independently and no
// weakening disjunction is synthesized. The one inherited source is an
// implemented interface: a member without its own precondition adopts
// the interface member's entry checks.
func (w *Weaver) weavePreconditions(c *ir.Class) error {
	for _, m := range append([]*ir.Member(nil), c.Members...) {
		if len(m.Preconditions) == 0 {
			w.weaveInheritedPrecondition(c, m)
			continue
		}
		if !IsPreconditionCandidate(c, m) {
			w.printf("%s.%s: precondition not applicable; ignored", c.Name, m.Name)
			continue
		}

		checks := make([]ir.Stmt, 0, len(m.Preconditions))
		for _, p := range m.Preconditions {
			if err := p.Validate(contract.KindPrecondition, m.ReturnsValue()); err != nil {
				return errors.Wrapf(err, "%s.%s", c.Name, m.Name)
			}
			checks = append(checks, &ir.Assert{
				Class:  c.Name,
				Kind:   contract.KindPrecondition,
				Member: m.Name,
				Pred:   p,
			})
		}

		// For constructors, entry checks land after the explicit
		// super-constructor delegation so that it stays first.
		m.Body = insertAt(m.Body, bodyStart(m), checks...)
		w.printf("%s.%s: wove %d precondition(s)", c.Name, m.Name, len(checks))
	}
	return nil
}

// weaveInheritedPrecondition gives a member that declares no
// precondition the entry checks of the interface member it implements.
func (w *Weaver) weaveInheritedPrecondition(c *ir.Class, m *ir.Member) {
	if !IsPreconditionCandidate(c, m) || len(m.Body) == 0 {
		return
	}
	link := w.comb.preconditionChain(c, m)
	if link == nil {
		return
	}
	m.Body = insertAt(m.Body, bodyStart(m), &ir.InvokeCheck{
		Class: link.class,
		Name:  link.name,
		Pass:  passParams(m),
	})
	w.printf("%s.%s: wove precondition inherited from %s",
		c.Name, m.Name, w.unit.Class(link.class).Name)
}

// ensurePreconditionRoutine backs an interface member's entry checks up
// in a routine implementing classes can invoke. The routine's
// parameters are the interface member's own, so forwarded arguments
// bind correctly however the implementation names them.
func (w *Weaver) ensurePreconditionRoutine(c *ir.Class, m *ir.Member) *ir.Member {
	name := PreconditionMethodName(m.Name)
	if existing := c.Member(name); existing != nil {
		return existing
	}

	body := make([]ir.Stmt, 0, len(m.Preconditions))
	for _, p := range m.Preconditions {
		body = append(body, &ir.Assert{
			Class:  c.Name,
			Kind:   contract.KindPrecondition,
			Member: m.Name,
			Pred:   p,
		})
	}
	routine := &ir.Member{
		Body:   body,
		Flags:  ir.MemberSynthetic | ir.MemberPublic,
		Name:   name,
		Params: append([]ir.Param(nil), m.Params...),
	}
	c.AddMember(routine)
	return routine
}

// bodyStart returns the index at which synthesized entry statements are
// inserted: past an explicit super-constructor delegation, otherwise
// the top of the body.
func bodyStart(m *ir.Member) int {
	if m.Flags.Has(ir.MemberConstructor) && len(m.Body) > 0 {
		if _, ok := m.Body[0].(*ir.DelegateSuper); ok {
			return 1
		}
	}
	return 0
}

// insertAt splices stmts into body at index i, always allocating a new
// backing array so callers retain no alias into the old body.
func insertAt(body []ir.Stmt, i int, stmts ...ir.Stmt) []ir.Stmt {
	ret := make([]ir.Stmt, 0, len(body)+len(stmts))
	ret = append(ret, body[:i]...)
	ret = append(ret, stmts...)
	ret = append(ret, body[i:]...)
	return ret
}
