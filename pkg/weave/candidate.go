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

	"github.com/cockroachdb/weave/pkg/ir"
)

// RuntimePrefixes lists class-name prefixes that belong to the
// language or platform runtime namespace. Such classes are never
// candidates for contract weaving.
var RuntimePrefixes = []string{"lang.", "runtime."}

// IsRuntimeClass reports whether the class belongs to the runtime
// namespace.
func IsRuntimeClass(c *ir.Class) bool {
	for _, prefix := range RuntimePrefixes {
		if strings.HasPrefix(c.Name, prefix) {
			return true
		}
	}
	return false
}

// IsContractClass reports whether the class is a candidate for
// contract weaving. Compiler-synthesized artifacts, interfaces,
// enumerations, generic placeholders, script bodies and runtime classes
// are excluded.
func IsContractClass(c *ir.Class) bool {
	if c == nil {
		return false
	}
	excluded := ir.ClassSynthetic | ir.ClassInterface | ir.ClassEnum |
		ir.ClassGeneric | ir.ClassScript
	return c.Flags&excluded == 0 && !IsRuntimeClass(c)
}

// IsInterfaceContractClass reports whether the interface is a candidate
// for carrying interface contracts. The exclusions match
// IsContractClass minus the interface test itself.
func IsInterfaceContractClass(c *ir.Class) bool {
	if c == nil || !c.Flags.Has(ir.ClassInterface) {
		return false
	}
	excluded := ir.ClassSynthetic | ir.ClassEnum | ir.ClassGeneric | ir.ClassScript
	return c.Flags&excluded == 0 && !IsRuntimeClass(c)
}

// IsInvariantProperty reports whether the field-backed property
// qualifies for invariant wrapping of its generated setter.
func IsInvariantProperty(p *ir.Property) bool {
	return p != nil && p.Public && !p.Static && !p.InStaticInit && !p.ClosureShared
}

// IsPreconditionCandidate reports whether the member may carry
// preconditions: non-synthetic, non-abstract and declared directly on
// the class. Inherited members are not re-woven on the subtype.
func IsPreconditionCandidate(c *ir.Class, m *ir.Member) bool {
	if m.Flags.Has(ir.MemberSynthetic) || m.Flags.Has(ir.MemberAbstract) {
		return false
	}
	return m.DeclaredOn == c.ID
}

// IsPostconditionCandidate reports whether the member may carry
// postconditions. Static members are excluded: there is no instance
// state to snapshot or invariant to chain to.
func IsPostconditionCandidate(c *ir.Class, m *ir.Member) bool {
	return IsPreconditionCandidate(c, m) && !m.Flags.Has(ir.MemberStatic)
}

// IsConditionCandidate reports whether the member qualifies for either
// contract kind that attaches to members.
func IsConditionCandidate(c *ir.Class, m *ir.Member) bool {
	return IsPreconditionCandidate(c, m) || IsPostconditionCandidate(c, m)
}
