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

import "fmt"

// A Violation is the assertion-failure signal raised by a woven check.
// It propagates to the caller exactly like any other error, terminating
// the operation; there is no recovery or retry path.
type Violation struct {
	// Class is the declaring class of the failed check.
	Class string
	// Kind is the contract kind that failed.
	Kind Kind
	// Member is the member the check guards. Empty for invariants
	// raised from a synthetic constructor or setter context where no
	// user-declared member is involved.
	Member string
	// Source is the predicate's original source text.
	Source string
}

var _ error = &Violation{}

// Error implements the error interface.
func (v *Violation) Error() string {
	if v.Member == "" {
		return fmt.Sprintf("%s violation in %s: %s",
			v.Kind.label(), v.Class, v.Source)
	}
	return fmt.Sprintf("%s violation in %s.%s: %s",
		v.Kind.label(), v.Class, v.Member, v.Source)
}
