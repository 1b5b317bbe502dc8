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
	"github.com/cockroachdb/weave/pkg/ir"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// OldVariablesMethod is the name of the generated old-state capture
// routine. One is synthesized per class that has at least one
// postcondition-bearing member.
const OldVariablesMethod = "$old$variables"

// ensureSnapshot synthesizes the old-state capture routine for the
// class. The routine is generated at most once; repeated requests
// return the existing member.
//
// The capture is a shallow copy: each slot's reference or value is
// copied, not cloned. A postcondition comparing a mutable referenced
// sub-object through "old" will observe post-mutation state.
func (w *Weaver) ensureSnapshot(c *ir.Class) *ir.Member {
	if m := c.Member(OldVariablesMethod); m != nil {
		return m
	}
	m := &ir.Member{
		Body:       []ir.Stmt{&ir.Snapshot{Slots: w.snapshotSlots(c)}},
		Flags:      ir.MemberSynthetic | ir.MemberPublic,
		Name:       OldVariablesMethod,
		ReturnType: "map",
	}
	c.AddMember(m)
	w.printf("%s: generated %s", c.Name, OldVariablesMethod)
	return m
}

// snapshotSlots lists the instance-state slots accessible from the
// class: its own non-static properties plus the public non-static
// properties of its ancestors, in sorted order for deterministic
// capture.
func (w *Weaver) snapshotSlots(c *ir.Class) []string {
	slots := make(map[string]bool)
	for _, p := range c.Props {
		if !p.Static {
			slots[p.Name] = true
		}
	}
	for id := c.Super; id != ir.NoClass; {
		super := w.unit.Class(id)
		for _, p := range super.Props {
			if p.Public && !p.Static {
				slots[p.Name] = true
			}
		}
		id = super.Super
	}
	ret := maps.Keys(slots)
	slices.Sort(ret)
	return ret
}
