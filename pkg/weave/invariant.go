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
	"strings"

	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/cockroachdb/weave/pkg/ir"
	"github.com/pkg/errors"
)

// InvariantMethodName returns the name of the class's generated
// invariant check routine. The routine is declared once, on the class
// owning the invariant; subtypes invoke it rather than re-synthesizing
// it.
func InvariantMethodName(c *ir.Class) string {
	return "$invariant$" + c.Name
}

// weaveInvariants establishes the class's combined invariant check and
// injects calls to it at the end of every constructor and around every
// generated property setter.
//
// The combined invariant is the conjunction of the class's own
// predicate with the nearest ancestor's combined invariant: the check
// routine asserts its own predicate and then invokes the ancestor's
// routine. A subtype may only add restrictions, never relax them.
func (w *Weaver) weaveInvariants(c *ir.Class) error {
	target, err := w.ensureInvariantRoutine(c)
	if err != nil || target == nil {
		return err
	}

	ctors := c.Constructors()
	if len(ctors) == 0 {
		// No declared constructor: add a synthetic public no-argument
		// constructor consisting solely of the invariant check.
		ctor := &ir.Member{
			Body:  []ir.Stmt{invokeTarget(target)},
			Flags: ir.MemberSynthetic | ir.MemberConstructor | ir.MemberPublic,
			Name:  "<init>",
		}
		c.AddMember(ctor)
		w.printf("%s: added synthetic constructor with invariant check", c.Name)
	}
	for _, ctor := range ctors {
		// After delegation to any super-constructor, so supertype
		// state is initialized first.
		ctor.Body = append(ctor.Body, invokeTarget(target))
	}

	if c.Flags.Has(ir.ClassComponent) {
		// Dependency-injection-managed components skip structural
		// setter interception but keep constructor-time checks.
		return nil
	}
	for _, p := range c.Props {
		if !IsInvariantProperty(p) || p.HasSetter {
			continue
		}
		name := SetterName(p.Name)
		if c.LookupMember(name, []ir.Param{{Name: "value", Type: p.Type}}) != nil {
			continue
		}
		c.AddMember(w.makeSetter(p, name, target))
		w.printf("%s: wrapped setter %s with invariant check", c.Name, name)
	}
	return nil
}

// ensureInvariantRoutine resolves the invariant check the class's
// constructors and setters must invoke. A class with its own invariant
// gets a routine synthesized once; a class inheriting one reuses the
// ancestor's routine. A nil target means no invariant applies anywhere
// on the chain.
func (w *Weaver) ensureInvariantRoutine(c *ir.Class) (*chain, error) {
	if c.Invariant == nil {
		return w.comb.invariantChain(c), nil
	}
	if err := c.Invariant.Validate(contract.KindInvariant, false); err != nil {
		return nil, errors.Wrap(err, c.Name)
	}

	name := InvariantMethodName(c)
	if c.Member(name) == nil {
		body := []ir.Stmt{&ir.Assert{
			Class: c.Name,
			Kind:  contract.KindInvariant,
			Pred:  c.Invariant,
		}}
		if link := w.comb.invariantChain(c); link != nil {
			body = append(body, &ir.InvokeCheck{Class: link.class, Name: link.name})
		}
		c.AddMember(&ir.Member{
			Body:  body,
			Flags: ir.MemberSynthetic | ir.MemberPublic,
			Name:  name,
		})
		w.printf("%s: generated %s", c.Name, name)
	}
	return &chain{class: c.ID, name: name}, nil
}

// makeSetter generates the setter body for a field-backed property:
// the invariant is checked immediately before and immediately after the
// field assignment, catching both a pre-existing broken invariant and a
// break introduced by the assignment itself.
func (w *Weaver) makeSetter(p *ir.Property, name string, target *chain) *ir.Member {
	field := p.Name
	assign := func(s *ir.Scope) interface{} {
		s.Fields[field] = s.Locals["value"]
		return nil
	}
	return &ir.Member{
		Body: []ir.Stmt{
			invokeTarget(target),
			&ir.ExprStmt{X: assign},
			invokeTarget(target),
		},
		Flags:  ir.MemberSynthetic | ir.MemberPublic,
		Name:   name,
		Params: []ir.Param{{Name: "value", Type: p.Type}},
	}
}

// SetterName returns the conventional generated setter name for a
// property.
func SetterName(prop string) string {
	if prop == "" {
		return "set"
	}
	return "set" + strings.ToUpper(prop[:1]) + prop[1:]
}

func invokeTarget(target *chain) ir.Stmt {
	return &ir.InvokeCheck{Class: target.class, Name: target.name}
}
