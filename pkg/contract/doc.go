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

// Package contract defines the vocabulary shared between the front end
// that extracts contract annotations and the weaving engine that
// compiles them into method bodies.
//
// A contract is a boolean predicate attached to a declaration. There
// are three kinds:
//
//   - A precondition guards entry into a method. It may read the
//     method's parameters and the instance state.
//   - A postcondition guards exit from a method. It may additionally
//     read the old-state snapshot captured before the body ran and,
//     for value-returning methods, the about-to-be-returned result.
//   - An invariant constrains the instance state of a class. It is
//     checked at the end of construction and around generated setters.
//
// The predicate expression itself is compiled by the front end into a
// callable boolean-valued unit; this package only describes its shape.
// A Predicate carries the original source text so that a runtime
// Violation can point back at the condition exactly as it was written:
//
//	precondition violation in Account.withdraw: amount > 0
//
// Violations are ordinary errors. They propagate to the caller like any
// other uncaught error and carry the contract kind, the declaring
// class, the member name and the predicate source text. There is no
// recovery path; disabling a kind through Config is the only sanctioned
// way to suppress its checks.
package contract
