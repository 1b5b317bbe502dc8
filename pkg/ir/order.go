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

package ir

import (
	"strings"

	"github.com/pkg/errors"
)

// InheritanceOrder returns all classes ordered so that every class
// appears after its declared supertype and interfaces. Ancestor
// contracts must be woven before a descendant's combination step runs,
// so the weaving pass processes classes in this order.
//
// A cyclic-inheritance input is a fatal configuration: the returned
// error names the classes on the cycle.
func (u *Unit) InheritanceOrder() ([]ClassID, error) {
	const (
		white = iota // unvisited
		grey         // on the current walk
		black        // done
	)
	color := make([]int, len(u.classes))
	ret := make([]ClassID, 0, len(u.classes))

	var visit func(id ClassID, trail []string) error
	visit = func(id ClassID, trail []string) error {
		switch color[id] {
		case black:
			return nil
		case grey:
			trail = append(trail, u.classes[id].Name)
			return errors.Errorf("cyclic inheritance: %s",
				strings.Join(trail, " -> "))
		}
		color[id] = grey
		trail = append(trail, u.classes[id].Name)

		c := u.classes[id]
		if c.Super != NoClass {
			if err := visit(c.Super, trail); err != nil {
				return err
			}
		}
		for _, intf := range c.Interfaces {
			if err := visit(intf, trail); err != nil {
				return err
			}
		}

		color[id] = black
		ret = append(ret, id)
		return nil
	}

	for id := range u.classes {
		if err := visit(ClassID(id), nil); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
