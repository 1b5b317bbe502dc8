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

// PostconditionMethodName returns the name of the generated check
// routine backing the postcondition of the named member. Subtypes chain
// into their ancestors' contracts by invoking these routines.
func PostconditionMethodName(member string) string {
	return "$postcondition$" + member
}

// weavePostconditions rewrites each postcondition-eligible member of
// the class: members with their own postcondition get a check routine
// plus the exit rewrite, and members overriding a postcondition-bearing
// ancestor without declaring their own get a default exit rewrite that
// chains straight into the ancestor's routine. Subtype postconditions
// are never silently dropped by omission.
func (w *Weaver) weavePostconditions(c *ir.Class) error {
	for _, m := range append([]*ir.Member(nil), c.Members...) {
		switch {
		case m.Postcondition != nil:
			if !IsPostconditionCandidate(c, m) {
				w.printf("%s.%s: postcondition not applicable; ignored", c.Name, m.Name)
				continue
			}
			if err := m.Postcondition.Validate(contract.KindPostcondition, m.ReturnsValue()); err != nil {
				return errors.Wrapf(err, "%s.%s", c.Name, m.Name)
			}
			// The routine is synthesized even for an empty body so
			// that subtypes can still chain into this contract.
			routine := w.ensurePostconditionRoutine(c, m)
			if len(m.Body) == 0 {
				continue
			}
			w.rewriteExit(c, m, &chain{class: c.ID, name: routine.Name})
			w.printf("%s.%s: wove postcondition", c.Name, m.Name)

		case IsPostconditionCandidate(c, m) && len(m.Body) > 0:
			link := w.comb.postconditionChain(c, m)
			if link == nil {
				continue
			}
			w.rewriteExit(c, m, link)
			w.printf("%s.%s: wove default postcondition chained to %s",
				c.Name, m.Name, w.unit.Class(link.class).Name)
		}
	}
	return nil
}

// ensurePostconditionRoutine synthesizes the member's backed-up
// postcondition check: it asserts the member's own predicate and then
// invokes the nearest ancestor's routine, passing the method parameters
// and the shared "old" and "result" bindings through. The conjunction
// with everything the ancestor promised comes from that nesting.
func (w *Weaver) ensurePostconditionRoutine(c *ir.Class, m *ir.Member) *ir.Member {
	name := PostconditionMethodName(m.Name)
	if existing := c.Member(name); existing != nil {
		return existing
	}

	params := append([]ir.Param(nil), m.Params...)
	params = append(params, ir.Param{Name: "old", Type: "map"})
	if m.ReturnsValue() {
		params = append(params, ir.Param{Name: "result"})
	}

	body := []ir.Stmt{&ir.Assert{
		Class:  c.Name,
		Kind:   contract.KindPostcondition,
		Member: m.Name,
		Pred:   m.Postcondition,
	}}
	if link := w.comb.postconditionChain(c, m); link != nil {
		body = append(body, &ir.InvokeCheck{
			Class: link.class,
			Name:  link.name,
			Pass:  passList(m),
		})
	}

	routine := &ir.Member{
		Body:   body,
		Flags:  ir.MemberSynthetic | ir.MemberPublic,
		Name:   name,
		Params: params,
	}
	c.AddMember(routine)
	return routine
}

// rewriteExit rebuilds the member body per the exit-check shape:
//
//  1. capture the old-state snapshot into the "old" local;
//  2. run the original body, intercepting a trailing return expression
//     into the "result" local before any check runs;
//  3. invoke the combined postcondition check;
//  4. return the previously captured result, if there was one.
//
// For constructors there is no return interception and the capture
// lands after the explicit super-constructor delegation, so chained
// checks observe a fully initialized ancestor state.
func (w *Weaver) rewriteExit(c *ir.Class, m *ir.Member, link *chain) {
	w.ensureSnapshot(c)

	start := bodyStart(m)
	body := append([]ir.Stmt(nil), m.Body...)

	var resultStmt ir.Stmt
	if m.ReturnsValue() {
		if last, ok := body[len(body)-1].(*ir.Return); ok && last.X != nil {
			body = body[:len(body)-1]
			resultStmt = &ir.SetLocal{Name: "result", X: last.X}
		}
	}

	// Without an intercepted return there is no "result" binding to
	// forward; the routine's result parameter stays unbound.
	pass := append(passParams(m), "old")
	if resultStmt != nil {
		pass = append(pass, "result")
	}

	woven := make([]ir.Stmt, 0, len(body)+4)
	woven = append(woven, body[:start]...)
	woven = append(woven, &ir.CaptureOld{Class: c.ID, Name: OldVariablesMethod})
	woven = append(woven, body[start:]...)
	if resultStmt != nil {
		woven = append(woven, resultStmt)
	}
	woven = append(woven, &ir.InvokeCheck{Class: link.class, Name: link.name, Pass: pass})
	if resultStmt != nil {
		woven = append(woven, &ir.Return{X: localExpr("result")})
	}
	m.Body = woven
}

// passList names the caller locals forwarded into a postcondition check
// routine: the method's parameters plus the conventional bindings.
func passList(m *ir.Member) []string {
	ret := append(passParams(m), "old")
	if m.ReturnsValue() {
		ret = append(ret, "result")
	}
	return ret
}

func passParams(m *ir.Member) []string {
	ret := make([]string, len(m.Params))
	for i, p := range m.Params {
		ret[i] = p.Name
	}
	return ret
}

// localExpr reads a frame-local binding.
func localExpr(name string) ir.Expr {
	return func(s *ir.Scope) interface{} {
		return s.Locals[name]
	}
}
