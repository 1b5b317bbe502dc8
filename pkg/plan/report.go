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

package plan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// A Report describes the weaving performed for one unit manifest: the
// routines that were synthesized and the member bodies that were
// rewritten.
type Report struct {
	// The manifest file the unit was loaded from.
	File string
	// One line per change, in class declaration order.
	Lines []string
	// The unit name from the manifest.
	Unit string
}

// String is suitable for human consumption.
func (r *Report) String() string {
	return r.StringRelative("")
}

// StringRelative is suitable for human consumption and makes the
// emitted file path relative to the given base path.
func (r *Report) StringRelative(basePath string) string {
	file := r.File
	if basePath != "" {
		if rel, err := filepath.Rel(basePath, r.File); err == nil {
			file = rel
		}
	}
	sb := &strings.Builder{}
	sb.WriteString(fmt.Sprintf("Unit %s from %s", r.Unit, file))
	if len(r.Lines) == 0 {
		sb.WriteString("\n  (nothing to weave)")
	}
	for _, line := range r.Lines {
		sb.WriteString("\n  ")
		sb.WriteString(line)
	}
	return sb.String()
}

// Reports is a sortable slice of Report.
type Reports []*Report

var _ sort.Interface = Reports{}

// Len implements sort.Interface.
func (r Reports) Len() int { return len(r) }

// Less implements sort.Interface. It orders reports by file, then by
// unit name.
func (r Reports) Less(i, j int) bool {
	a, b := r[i], r[j]
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c < 0
	}
	return strings.Compare(a.Unit, b.Unit) < 0
}

// Swap implements sort.Interface.
func (r Reports) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
