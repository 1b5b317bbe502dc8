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

package contract

import (
	"github.com/pkg/errors"
)

// Uses is a bitset describing which binding kinds a compiled predicate
// reads. The front end records this while compiling the expression so
// that the weaver can validate the free-variable set against the
// contract kind without re-inspecting the expression.
type Uses uint8

const (
	// UsesParams is set when the predicate reads a method parameter.
	UsesParams Uses = 1 << iota
	// UsesState is set when the predicate reads live instance state.
	UsesState
	// UsesOld is set when the predicate reads the old-state snapshot.
	UsesOld
	// UsesResult is set when the predicate reads the method's result.
	UsesResult
)

// An Env is the environment a compiled predicate evaluates in. The
// woven code constructs one per check site; the bindings visible
// through it are scoped to that single invocation.
type Env interface {
	// Param returns the named method parameter.
	Param(name string) interface{}
	// Field returns the named slot of the live instance state.
	Field(name string) interface{}
	// Old returns the named slot of the old-state snapshot. The
	// snapshot is shallow: mutable referenced objects are shared with
	// the live state.
	Old(name string) interface{}
	// Result returns the value the method is about to return.
	Result() interface{}
}

// A Predicate is a compiled boolean expression attached to a member or
// class. Instances arrive fully formed from the extraction collaborator;
// the weaver never builds the Eval closure itself, it only decides
// where the closure is invoked from.
type Predicate struct {
	// Eval is the compiled boolean-valued unit. It may be nil when the
	// weaver is only asked for a weaving plan; weaving itself never
	// invokes it.
	Eval func(Env) bool
	// Line is the source line of the annotation, for error reporting.
	Line int
	// Source is the literal source text of the expression. It is
	// carried verbatim into any Violation raised by the check.
	Source string
	// Uses declares the free-variable set of the expression.
	Uses Uses
}

// Validate checks the predicate's declared free-variable set against
// the permitted set for the given contract kind. The returnsValue
// argument reports whether the attached member returns a value; only
// such members may bind "result".
func (p *Predicate) Validate(kind Kind, returnsValue bool) error {
	var allowed Uses
	switch kind {
	case KindPrecondition:
		allowed = UsesParams | UsesState
	case KindPostcondition:
		allowed = UsesParams | UsesState | UsesOld
		if returnsValue {
			allowed |= UsesResult
		}
	case KindInvariant:
		allowed = UsesState
	default:
		return errors.Errorf("unknown contract kind %d", kind)
	}
	if extra := p.Uses &^ allowed; extra != 0 {
		return errors.Errorf("%s may not reference %s: %s",
			kind.label(), extra, p.Source)
	}
	return nil
}

// String describes the bits set, for diagnostics.
func (u Uses) String() string {
	names := []struct {
		bit  Uses
		name string
	}{
		{UsesParams, "params"},
		{UsesState, "state"},
		{UsesOld, "old"},
		{UsesResult, "result"},
	}
	var ret string
	for _, n := range names {
		if u&n.bit == 0 {
			continue
		}
		if ret != "" {
			ret += ","
		}
		ret += n.name
	}
	if ret == "" {
		return "nothing"
	}
	return ret
}
