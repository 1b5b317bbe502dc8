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

import "strings"

//go:generate stringer -type Kind -trimprefix Kind

// The Kind of a contract describes where it attaches and which
// free variables its predicate may use.
type Kind int

// The permitted free-variable sets are fixed per kind.
//
//	| Kind          | Attaches to | May read                            |
//	-----------------------------------------------------------------------
//	| Precondition  | member      | params, state                       |
//	| Postcondition | member      | params, state, old, result (if any) |
//	| Invariant     | class       | state                               |
const (
	// A precondition is checked before the member's original body
	// executes; on failure the body must not run at all.
	KindPrecondition Kind = iota + 1
	// A postcondition is checked after the member's original body has
	// produced its result but before that result is returned.
	KindPostcondition
	// An invariant is checked at the end of every constructor and
	// around every generated setter of the class.
	KindInvariant
)

// label returns the lowercase form used in diagnostics.
func (k Kind) label() string {
	return strings.ToLower(k.String())
}
