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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	a := assert.New(t)

	a.Equal("Precondition", KindPrecondition.String())
	a.Equal("Postcondition", KindPostcondition.String())
	a.Equal("Invariant", KindInvariant.String())
	a.Equal("invariant", KindInvariant.label())
}

func TestUsesString(t *testing.T) {
	a := assert.New(t)

	a.Equal("nothing", Uses(0).String())
	a.Equal("params", UsesParams.String())
	a.Equal("params,state,old,result",
		(UsesParams | UsesState | UsesOld | UsesResult).String())
	a.Equal("old,result", (UsesOld | UsesResult).String())
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		kind         Kind
		uses         Uses
		returnsValue bool
		ok           bool
	}{
		{KindPrecondition, UsesParams | UsesState, false, true},
		{KindPrecondition, UsesOld, false, false},
		{KindPrecondition, UsesResult, true, false},
		{KindPostcondition, UsesParams | UsesState | UsesOld, false, true},
		{KindPostcondition, UsesResult, true, true},
		// A void member has no result to bind.
		{KindPostcondition, UsesResult, false, false},
		{KindInvariant, UsesState, false, true},
		{KindInvariant, UsesParams, false, false},
		{KindInvariant, UsesOld | UsesResult, false, false},
	}

	for _, tc := range tcs {
		tc := tc
		t.Run(fmt.Sprintf("%s/%s", tc.kind, tc.uses), func(t *testing.T) {
			a := assert.New(t)
			p := &Predicate{Source: "x", Uses: tc.uses}
			err := p.Validate(tc.kind, tc.returnsValue)
			if tc.ok {
				a.NoError(err)
			} else if a.Error(err) {
				a.Contains(err.Error(), "may not reference")
			}
		})
	}
}

func TestViolationMessage(t *testing.T) {
	a := assert.New(t)

	v := &Violation{
		Class:  "Account",
		Kind:   KindPrecondition,
		Member: "withdraw",
		Source: "amount > 0",
	}
	a.Equal("precondition violation in Account.withdraw: amount > 0", v.Error())

	// Invariants raised from synthetic contexts carry no member.
	v = &Violation{
		Class:  "Counter",
		Kind:   KindInvariant,
		Source: "count >= 0",
	}
	a.Equal("invariant violation in Counter: count >= 0", v.Error())
}

func TestConfig(t *testing.T) {
	a := assert.New(t)

	cfg := DefaultConfig()
	a.True(cfg.Enabled(KindPrecondition))
	a.True(cfg.Enabled(KindPostcondition))
	a.True(cfg.Enabled(KindInvariant))
	a.False(cfg.Enabled(Kind(0)))

	cfg.Postconditions = false
	a.True(cfg.Enabled(KindPrecondition))
	a.False(cfg.Enabled(KindPostcondition))
}
