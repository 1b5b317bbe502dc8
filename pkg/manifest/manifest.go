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

// Package manifest loads unit manifests: yaml descriptions of a
// compilation unit's declarations and contract annotations, as produced
// by a front end. A manifest carries metadata and predicate source text
// only; the predicates are not compiled, so a unit built from one can
// be woven for planning purposes but not executed.
package manifest

import (
	"bytes"
	"os"

	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/cockroachdb/weave/pkg/ir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is the top-level document.
type Manifest struct {
	// Config overrides the per-kind toggles for this unit. Absent keys
	// keep their defaults.
	Config  *contract.Config `yaml:"config"`
	Classes []ClassSpec      `yaml:"classes"`
	Unit    string           `yaml:"unit"`
}

// ClassSpec describes one class declaration.
type ClassSpec struct {
	Name       string         `yaml:"name"`
	Super      string         `yaml:"super"`
	Interfaces []string       `yaml:"interfaces"`
	Flags      []string       `yaml:"flags"`
	Invariant  *PredicateSpec `yaml:"invariant"`
	Properties []PropertySpec `yaml:"properties"`
	Members    []MemberSpec   `yaml:"members"`
}

// PropertySpec describes a field-backed property.
type PropertySpec struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Public        bool   `yaml:"public"`
	Static        bool   `yaml:"static"`
	InStaticInit  bool   `yaml:"in_static_init"`
	ClosureShared bool   `yaml:"closure_shared"`
	Setter        bool   `yaml:"setter"`
}

// MemberSpec describes a method or constructor.
type MemberSpec struct {
	Name    string      `yaml:"name"`
	Params  []ParamSpec `yaml:"params"`
	Returns string      `yaml:"returns"`
	Flags   []string    `yaml:"flags"`
	// Requires lists the member's preconditions in declaration order.
	Requires []PredicateSpec `yaml:"requires"`
	// Ensures is the member's postcondition.
	Ensures *PredicateSpec `yaml:"ensures"`
}

// ParamSpec describes a method parameter.
type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// PredicateSpec describes an uncompiled predicate.
type PredicateSpec struct {
	Source string   `yaml:"source"`
	Line   int      `yaml:"line"`
	Uses   []string `yaml:"uses"`
}

// Load reads and builds a unit manifest from a file.
func Load(path string) (*ir.Unit, contract.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, contract.Config{}, err
	}
	return Parse(data)
}

// Parse builds an ir.Unit from manifest bytes. Unknown fields are
// rejected to help with typos.
func Parse(data []byte) (*ir.Unit, contract.Config, error) {
	var m Manifest
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	if err := d.Decode(&m); err != nil {
		return nil, contract.Config{}, errors.Wrap(err, "could not decode manifest")
	}

	cfg := contract.DefaultConfig()
	if m.Config != nil {
		cfg = *m.Config
	}

	u := ir.NewUnit(m.Unit)

	// First pass registers all classes so that forward references to
	// supertypes and interfaces resolve.
	for i := range m.Classes {
		spec := &m.Classes[i]
		c := &ir.Class{
			Name:  spec.Name,
			Super: ir.NoClass,
		}
		var err error
		if c.Flags, err = classFlags(spec.Flags); err != nil {
			return nil, cfg, errors.Wrap(err, spec.Name)
		}
		if _, err := u.AddClass(c); err != nil {
			return nil, cfg, err
		}
	}

	// Second pass wires references and members.
	for i := range m.Classes {
		spec := &m.Classes[i]
		id, _ := u.Lookup(spec.Name)
		c := u.Class(id)

		if spec.Super != "" {
			super, ok := u.Lookup(spec.Super)
			if !ok {
				return nil, cfg, errors.Errorf("%s: unknown supertype %q", spec.Name, spec.Super)
			}
			c.Super = super
		}
		for _, name := range spec.Interfaces {
			intf, ok := u.Lookup(name)
			if !ok {
				return nil, cfg, errors.Errorf("%s: unknown interface %q", spec.Name, name)
			}
			c.Interfaces = append(c.Interfaces, intf)
		}
		if spec.Invariant != nil {
			pred, err := predicate(spec.Invariant)
			if err != nil {
				return nil, cfg, errors.Wrap(err, spec.Name)
			}
			c.Invariant = pred
		}
		for _, p := range spec.Properties {
			c.Props = append(c.Props, &ir.Property{
				ClosureShared: p.ClosureShared,
				HasSetter:     p.Setter,
				InStaticInit:  p.InStaticInit,
				Name:          p.Name,
				Public:        p.Public,
				Static:        p.Static,
				Type:          p.Type,
			})
		}
		for j := range spec.Members {
			member, err := buildMember(&spec.Members[j])
			if err != nil {
				return nil, cfg, errors.Wrapf(err, "%s.%s", spec.Name, spec.Members[j].Name)
			}
			c.AddMember(member)
		}
	}

	return u, cfg, nil
}

func buildMember(spec *MemberSpec) (*ir.Member, error) {
	m := &ir.Member{
		Name:       spec.Name,
		ReturnType: spec.Returns,
	}
	var err error
	if m.Flags, err = memberFlags(spec.Flags); err != nil {
		return nil, err
	}
	for _, p := range spec.Params {
		m.Params = append(m.Params, ir.Param{Name: p.Name, Type: p.Type})
	}
	for i := range spec.Requires {
		pred, err := predicate(&spec.Requires[i])
		if err != nil {
			return nil, err
		}
		m.Preconditions = append(m.Preconditions, pred)
	}
	if spec.Ensures != nil {
		pred, err := predicate(spec.Ensures)
		if err != nil {
			return nil, err
		}
		m.Postcondition = pred
	}
	// A manifest carries no body statements; concrete members get a
	// stub body so the weavers have a shape to rewrite.
	if !m.Flags.Has(ir.MemberAbstract) {
		if m.ReturnsValue() {
			m.Body = []ir.Stmt{&ir.Return{X: func(*ir.Scope) interface{} { return nil }}}
		} else {
			m.Body = []ir.Stmt{&ir.ExprStmt{X: func(*ir.Scope) interface{} { return nil }}}
		}
	}
	return m, nil
}

func predicate(spec *PredicateSpec) (*contract.Predicate, error) {
	uses, err := usesFlags(spec.Uses)
	if err != nil {
		return nil, err
	}
	return &contract.Predicate{
		Line:   spec.Line,
		Source: spec.Source,
		Uses:   uses,
	}, nil
}

func classFlags(names []string) (ir.ClassFlags, error) {
	var ret ir.ClassFlags
	for _, name := range names {
		switch name {
		case "synthetic":
			ret |= ir.ClassSynthetic
		case "interface":
			ret |= ir.ClassInterface
		case "enum":
			ret |= ir.ClassEnum
		case "generic":
			ret |= ir.ClassGeneric
		case "script":
			ret |= ir.ClassScript
		case "component":
			ret |= ir.ClassComponent
		default:
			return 0, errors.Errorf("unknown class flag %q", name)
		}
	}
	return ret, nil
}

func memberFlags(names []string) (ir.MemberFlags, error) {
	var ret ir.MemberFlags
	for _, name := range names {
		switch name {
		case "synthetic":
			ret |= ir.MemberSynthetic
		case "abstract":
			ret |= ir.MemberAbstract
		case "static":
			ret |= ir.MemberStatic
		case "constructor":
			ret |= ir.MemberConstructor
		case "public":
			ret |= ir.MemberPublic
		default:
			return 0, errors.Errorf("unknown member flag %q", name)
		}
	}
	return ret, nil
}

func usesFlags(names []string) (contract.Uses, error) {
	var ret contract.Uses
	for _, name := range names {
		switch name {
		case "params":
			ret |= contract.UsesParams
		case "state":
			ret |= contract.UsesState
		case "old":
			ret |= contract.UsesOld
		case "result":
			ret |= contract.UsesResult
		default:
			return 0, errors.Errorf("unknown predicate binding %q", name)
		}
	}
	return ret, nil
}
