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

// Package weave implements the contract-weaving engine: it rewrites the
// declarations of a compilation unit so that preconditions,
// postconditions and class invariants are checked inline, at the call
// sites the contracts guard, combining each declaration's own contract
// with the contracts it inherits.
//
// The pass is a single-threaded, batch transformation. It processes
// classes in inheritance order, bases before subtypes, because a
// descendant's combination step references the check routines
// synthesized on its ancestors. Within a class the invariant weaver
// runs first, then the postcondition weaver (which drives old-state
// snapshot generation), then the precondition weaver, so entry checks
// end up ahead of the snapshot capture.
package weave

import (
	"log"

	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/cockroachdb/weave/pkg/ir"
	"github.com/pkg/errors"
)

// A Weaver rewrites one compilation unit at a time. The zero value
// weaves nothing; callers normally start from contract.DefaultConfig.
type Weaver struct {
	// Config gates each contract kind independently. A disabled kind
	// leaves every body for that kind completely unmodified.
	Config contract.Config
	// An optional Logger to receive diagnostic messages.
	Logger *log.Logger

	comb *combiner
	unit *ir.Unit
}

// Weave runs the pass over the unit, mutating it in place. Weaving-time
// errors (malformed predicates, cyclic inheritance) abort the unit and
// leave it partially woven; callers must discard the unit on error.
func (w *Weaver) Weave(u *ir.Unit) error {
	w.unit = u
	w.comb = newCombiner(u)

	order, err := u.InheritanceOrder()
	if err != nil {
		return errors.Wrap(err, u.Name)
	}

	for _, id := range order {
		c := u.Class(id)
		switch {
		case IsInterfaceContractClass(c):
			if err := w.weaveInterface(c); err != nil {
				return err
			}
		case IsContractClass(c):
			if w.Config.Invariants {
				if err := w.weaveInvariants(c); err != nil {
					return err
				}
			}
			if w.Config.Postconditions {
				if err := w.weavePostconditions(c); err != nil {
					return err
				}
			}
			if w.Config.Preconditions {
				if err := w.weavePreconditions(c); err != nil {
					return err
				}
			}
		default:
			w.reportIgnored(c)
		}
	}
	return nil
}

// weaveInterface validates the contracts declared on an interface and
// backs each of them up in a check routine, so that implementing
// classes can chain into the interface's contract exactly as they chain
// into a superclass's. Preconditions still never compose: an
// implementation with its own precondition replaces the interface's
// entry checks rather than combining with them.
func (w *Weaver) weaveInterface(c *ir.Class) error {
	if w.Config.Invariants && c.Invariant != nil {
		if _, err := w.ensureInvariantRoutine(c); err != nil {
			return err
		}
	}
	for _, m := range append([]*ir.Member(nil), c.Members...) {
		if m.Flags.Has(ir.MemberSynthetic) {
			continue
		}
		if w.Config.Preconditions && len(m.Preconditions) > 0 {
			for _, p := range m.Preconditions {
				if err := p.Validate(contract.KindPrecondition, m.ReturnsValue()); err != nil {
					return errors.Wrapf(err, "%s.%s", c.Name, m.Name)
				}
			}
			w.ensurePreconditionRoutine(c, m)
			w.printf("%s.%s: backed up interface precondition(s)", c.Name, m.Name)
		}
		if w.Config.Postconditions && m.Postcondition != nil {
			if err := m.Postcondition.Validate(contract.KindPostcondition, m.ReturnsValue()); err != nil {
				return errors.Wrapf(err, "%s.%s", c.Name, m.Name)
			}
			w.ensurePostconditionRoutine(c, m)
			w.printf("%s.%s: backed up interface postcondition", c.Name, m.Name)
		}
	}
	return nil
}

// reportIgnored emits not-applicable diagnostics for contracts attached
// to ineligible classes. Ignoring such placements is deliberate policy,
// not an error.
func (w *Weaver) reportIgnored(c *ir.Class) {
	if c.Invariant != nil {
		w.printf("%s: invariant not applicable; ignored", c.Name)
	}
	for _, m := range c.Members {
		if len(m.Preconditions) > 0 {
			w.printf("%s.%s: precondition not applicable; ignored", c.Name, m.Name)
		}
		if m.Postcondition != nil {
			w.printf("%s.%s: postcondition not applicable; ignored", c.Name, m.Name)
		}
	}
}

// printf will emit a diagnostic message via w.Logger, if one is
// configured.
func (w *Weaver) printf(format string, args ...interface{}) {
	if l := w.Logger; l != nil {
		l.Printf(format, args...)
	}
}
