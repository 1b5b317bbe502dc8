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

import "github.com/cockroachdb/weave/pkg/contract"

// A Scope is the storage an expression evaluates against: the instance
// slots of the receiver and the locals of the current invocation.
// Parameters are bound as locals; the conventional "old" and "result"
// bindings created by woven code are locals too.
type Scope struct {
	// Fields are the receiver's instance slots. Nil in static contexts.
	Fields map[string]interface{}
	// Locals hold parameters and invocation-scoped bindings.
	Locals map[string]interface{}
}

// An Expr is an expression compiled to a callable unit by the front
// end, evaluated against a Scope. Like predicate Eval closures, the
// weaver moves Expr values around but never constructs or unfolds them.
type Expr func(s *Scope) interface{}

// Stmt is the closed set of statement variants a member body is
// composed of. Components of the weaving pass switch exhaustively over
// this set; adding a variant requires revisiting every switch.
type Stmt interface {
	isStmt()
}

// An ExprStmt evaluates X for its side effects.
type ExprStmt struct {
	X Expr
}

// A SetLocal binds a local name to the value of X. The weaving pass
// synthesizes these for the conventional "old" and "result" bindings.
type SetLocal struct {
	Name string
	X    Expr
}

// A Return terminates the member, yielding the value of X. A nil X is
// a bare return.
type Return struct {
	X Expr
}

// A DelegateSuper is an explicit super-constructor call. It may only
// appear as the first statement of a constructor body. Args are bound
// positionally to the super-constructor's parameters.
type DelegateSuper struct {
	Args []Expr
}

// An Assert evaluates Pred and aborts the invocation with a
// contract.Violation when it is false. Synthesized by the weaving pass;
// front ends never emit it.
type Assert struct {
	Class  string
	Kind   contract.Kind
	Member string
	Pred   *contract.Predicate
}

// An InvokeCheck invokes a synthesized check routine declared on a
// specific class. The caller locals named in Pass are forwarded
// positionally, bound under the routine's own parameter names, so a
// routine declared against differently named parameters still sees its
// arguments. The explicit class target bypasses overriding, which is
// how a subtype's combined check reaches its ancestor's routine.
type InvokeCheck struct {
	Class ClassID
	Name  string
	Pass  []string
}

// A Call invokes a member on the current receiver with dynamic
// dispatch, evaluating Args positionally. Front ends lower property
// assignments through generated setters as Call statements.
type Call struct {
	Args   []Expr
	Method string
}

// A CaptureOld invokes the old-state capture routine generated on
// Class and binds the produced mapping to the conventional "old"
// local. The capture happens once, before the member's original body
// runs, and the binding is scoped to that invocation.
type CaptureOld struct {
	Class ClassID
	Name  string
}

// A Snapshot produces the old-state mapping: a fresh, shallow copy of
// the listed instance slots. It appears only as the sole statement of a
// generated old-state capture routine, whose value it becomes.
type Snapshot struct {
	Slots []string
}

func (*Call) isStmt()          {}
func (*CaptureOld) isStmt()    {}
func (*ExprStmt) isStmt()      {}
func (*SetLocal) isStmt()      {}
func (*Return) isStmt()        {}
func (*DelegateSuper) isStmt() {}
func (*Assert) isStmt()        {}
func (*InvokeCheck) isStmt()   {}
func (*Snapshot) isStmt()      {}
