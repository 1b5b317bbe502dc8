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

// Package interp executes the statement sequences of a woven unit. It
// stands in for the downstream code-generation collaborator: woven
// bodies run here exactly as compiled bodies would, with contract
// Violations surfacing as ordinary errors at the failing check.
package interp

import (
	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/cockroachdb/weave/pkg/ir"
	"github.com/pkg/errors"
)

// An Object is a runtime instance of a class from a woven unit. Its
// slots are keyed by property name.
type Object struct {
	Class  ir.ClassID
	Fields map[string]interface{}
}

// A Machine executes members of one unit. It holds no mutable state of
// its own; distinct goroutines may use one Machine on distinct objects.
type Machine struct {
	unit *ir.Unit
}

// New constructs a Machine over a woven unit.
func New(u *ir.Unit) *Machine {
	return &Machine{unit: u}
}

// Alloc allocates an instance without running any constructor or
// check.
func (vm *Machine) Alloc(class string) (*Object, error) {
	id, ok := vm.unit.Lookup(class)
	if !ok {
		return nil, errors.Errorf("unit %s has no class %s", vm.unit.Name, class)
	}
	return &Object{Class: id, Fields: make(map[string]interface{})}, nil
}

// NewObject allocates an instance and runs the constructor whose arity
// matches the supplied arguments. A class without any declared
// constructor admits zero-argument construction.
func (vm *Machine) NewObject(class string, args ...interface{}) (*Object, error) {
	obj, err := vm.Alloc(class)
	if err != nil {
		return nil, err
	}
	c := vm.unit.Class(obj.Class)
	ctor := ctorByArity(c, len(args))
	if ctor == nil {
		if len(args) == 0 {
			return obj, nil
		}
		return nil, errors.Errorf("%s: no constructor taking %d argument(s)", class, len(args))
	}
	if _, err := vm.run(obj, ctor, args); err != nil {
		return nil, err
	}
	return obj, nil
}

// Invoke calls the named method on the object, with dynamic dispatch
// along the superclass chain.
func (vm *Machine) Invoke(obj *Object, method string, args ...interface{}) (interface{}, error) {
	m := vm.resolve(obj.Class, method)
	if m == nil {
		return nil, errors.Errorf("%s has no method %s",
			vm.unit.Class(obj.Class).Name, method)
	}
	return vm.run(obj, m, args)
}

// resolve walks the superclass chain for the first concrete member with
// the given name.
func (vm *Machine) resolve(id ir.ClassID, name string) *ir.Member {
	for id != ir.NoClass {
		c := vm.unit.Class(id)
		if m := c.Member(name); m != nil && !m.Flags.Has(ir.MemberAbstract) {
			return m
		}
		id = c.Super
	}
	return nil
}

func ctorByArity(c *ir.Class, arity int) *ir.Member {
	for _, m := range c.Constructors() {
		if len(m.Params) == arity {
			return m
		}
	}
	return nil
}

// run binds arguments positionally and executes the member body.
func (vm *Machine) run(obj *Object, m *ir.Member, args []interface{}) (interface{}, error) {
	if len(args) != len(m.Params) {
		return nil, errors.Errorf("%s: want %d argument(s), got %d",
			m.Name, len(m.Params), len(args))
	}
	sc := &ir.Scope{
		Fields: obj.Fields,
		Locals: make(map[string]interface{}, len(args)+2),
	}
	if m.Flags.Has(ir.MemberStatic) {
		sc.Fields = nil
	}
	for i, p := range m.Params {
		sc.Locals[p.Name] = args[i]
	}
	ret, _, err := vm.exec(obj, m, sc)
	return ret, err
}

// exec interprets the body. The boolean reports whether a return
// statement terminated it.
func (vm *Machine) exec(obj *Object, m *ir.Member, sc *ir.Scope) (interface{}, bool, error) {
	for _, s := range m.Body {
		switch t := s.(type) {
		case *ir.Assert:
			if t.Pred.Eval == nil {
				return nil, false, errors.Errorf("predicate %q was not compiled", t.Pred.Source)
			}
			if !t.Pred.Eval(predEnv{sc}) {
				return nil, false, &contract.Violation{
					Class:  t.Class,
					Kind:   t.Kind,
					Member: t.Member,
					Source: t.Pred.Source,
				}
			}

		case *ir.Call:
			callee := vm.resolve(obj.Class, t.Method)
			if callee == nil {
				return nil, false, errors.Errorf("%s has no method %s",
					vm.unit.Class(obj.Class).Name, t.Method)
			}
			if _, err := vm.run(obj, callee, evalAll(t.Args, sc)); err != nil {
				return nil, false, err
			}

		case *ir.CaptureOld:
			routine := vm.unit.Class(t.Class).Member(t.Name)
			if routine == nil {
				return nil, false, errors.Errorf("%s has no capture routine %s",
					vm.unit.Class(t.Class).Name, t.Name)
			}
			snap, err := vm.run(obj, routine, nil)
			if err != nil {
				return nil, false, err
			}
			sc.Locals["old"] = snap

		case *ir.DelegateSuper:
			cur := vm.unit.Class(m.DeclaredOn)
			if cur.Super == ir.NoClass {
				return nil, false, errors.Errorf("%s has no superclass to delegate to", cur.Name)
			}
			args := evalAll(t.Args, sc)
			ctor := ctorByArity(vm.unit.Class(cur.Super), len(args))
			if ctor == nil {
				if len(args) > 0 {
					return nil, false, errors.Errorf("%s: no super-constructor taking %d argument(s)",
						cur.Name, len(args))
				}
				continue // implicit default super-constructor
			}
			if _, err := vm.run(obj, ctor, args); err != nil {
				return nil, false, err
			}

		case *ir.ExprStmt:
			t.X(sc)

		case *ir.InvokeCheck:
			callee := vm.unit.Class(t.Class).Member(t.Name)
			if callee == nil {
				return nil, false, errors.Errorf("%s has no check routine %s",
					vm.unit.Class(t.Class).Name, t.Name)
			}
			// Positional binding: the caller's locals land under the
			// routine's own parameter names, so an overriding member
			// may rename its parameters freely.
			locals := make(map[string]interface{}, len(t.Pass))
			for i, name := range t.Pass {
				bound := name
				if i < len(callee.Params) {
					bound = callee.Params[i].Name
				}
				locals[bound] = sc.Locals[name]
			}
			sub := &ir.Scope{Fields: obj.Fields, Locals: locals}
			if _, _, err := vm.exec(obj, callee, sub); err != nil {
				return nil, false, err
			}

		case *ir.Return:
			if t.X == nil {
				return nil, true, nil
			}
			return t.X(sc), true, nil

		case *ir.SetLocal:
			sc.Locals[t.Name] = t.X(sc)

		case *ir.Snapshot:
			snap := make(map[string]interface{}, len(t.Slots))
			for _, slot := range t.Slots {
				snap[slot] = sc.Fields[slot]
			}
			return snap, true, nil

		default:
			return nil, false, errors.Errorf("unhandled statement %T", s)
		}
	}
	return nil, false, nil
}

func evalAll(exprs []ir.Expr, sc *ir.Scope) []interface{} {
	ret := make([]interface{}, len(exprs))
	for i, x := range exprs {
		ret[i] = x(sc)
	}
	return ret
}

// predEnv exposes a Scope as the evaluation environment of a compiled
// predicate.
type predEnv struct {
	sc *ir.Scope
}

var _ contract.Env = predEnv{}

// Param implements contract.Env.
func (e predEnv) Param(name string) interface{} { return e.sc.Locals[name] }

// Field implements contract.Env.
func (e predEnv) Field(name string) interface{} { return e.sc.Fields[name] }

// Old implements contract.Env.
func (e predEnv) Old(name string) interface{} {
	if snap, ok := e.sc.Locals["old"].(map[string]interface{}); ok {
		return snap[name]
	}
	return nil
}

// Result implements contract.Env.
func (e predEnv) Result() interface{} { return e.sc.Locals["result"] }
