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

// Config holds the independent enable toggles for the three contract
// kinds. A disabled kind is a structural no-op: the corresponding
// weaver component leaves every body untouched, rather than emitting a
// check that short-circuits at run time.
type Config struct {
	Invariants     bool `yaml:"invariants"`
	Preconditions  bool `yaml:"preconditions"`
	Postconditions bool `yaml:"postconditions"`
}

// DefaultConfig enables all three contract kinds.
func DefaultConfig() Config {
	return Config{
		Invariants:     true,
		Preconditions:  true,
		Postconditions: true,
	}
}

// Enabled reports whether the given kind is enabled.
func (c Config) Enabled(k Kind) bool {
	switch k {
	case KindPrecondition:
		return c.Preconditions
	case KindPostcondition:
		return c.Postconditions
	case KindInvariant:
		return c.Invariants
	default:
		return false
	}
}
