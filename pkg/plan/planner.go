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

// Package plan drives the weaving pass over batches of unit manifests
// and reports what would be (or was) rewritten. Units weave
// independently, so the batch fans out across a worker pool; each
// individual unit is still processed by a single goroutine.
package plan

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"syscall"

	"github.com/cockroachdb/weave/pkg/contract"
	"github.com/cockroachdb/weave/pkg/ir"
	"github.com/cockroachdb/weave/pkg/manifest"
	"github.com/cockroachdb/weave/pkg/weave"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Planner is the main entrypoint for the weave binary. It loads unit
// manifests, runs the weaving pass over each and renders a Report per
// unit.
type Planner struct {
	// Config gates each contract kind. Per-unit manifest settings can
	// further disable a kind, never re-enable one disabled here.
	Config contract.Config
	// Allows the working directory to be overridden.
	Dir string
	// The manifest files to process, relative to Dir.
	Files []string
	// An optional Logger to receive diagnostic messages.
	Logger *log.Logger
	// The name of the binary, for the cobra Use line.
	Name string

	mu struct {
		sync.Mutex
		reports Reports
	}
}

// Execute allows a Planner to be called programmatically.
func (p *Planner) Execute(ctx context.Context) (Reports, error) {
	absDir, err := filepath.Abs(p.Dir)
	if err != nil {
		return nil, err
	}
	p.Dir = absDir
	if len(p.Files) == 0 {
		return nil, errors.New("no manifests specified")
	}

	g, ctx := errgroup.WithContext(ctx)
	ch := make(chan string, 1)

	for i := 0; i < runtime.NumCPU(); i++ {
		g.Go(func() error {
			for {
				select {
				case file, open := <-ch:
					if !open {
						return nil
					}
					report, err := p.plan(file)
					if err != nil {
						return errors.Wrap(err, file)
					}
					p.mu.Lock()
					p.mu.reports = append(p.mu.reports, report)
					p.mu.Unlock()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

sendLoop:
	for _, file := range p.Files {
		if !filepath.IsAbs(file) {
			file = filepath.Join(p.Dir, file)
		}
		select {
		case ch <- file:
		case <-ctx.Done():
			break sendLoop
		}
	}
	close(ch)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	ret := p.mu.reports
	p.mu.Unlock()
	sort.Sort(ret)
	return ret, nil
}

// plan loads, weaves and summarizes a single unit manifest.
func (p *Planner) plan(file string) (*Report, error) {
	u, cfg, err := manifest.Load(file)
	if err != nil {
		return nil, err
	}

	// The manifest may disable kinds; the planner's own gates apply on
	// top of that.
	cfg.Preconditions = cfg.Preconditions && p.Config.Preconditions
	cfg.Postconditions = cfg.Postconditions && p.Config.Postconditions
	cfg.Invariants = cfg.Invariants && p.Config.Invariants

	before := shape(u)
	w := &weave.Weaver{Config: cfg, Logger: p.Logger}
	if err := w.Weave(u); err != nil {
		return nil, err
	}

	report := &Report{File: file, Unit: u.Name}
	for _, c := range u.Classes() {
		prior := before[c.ID]
		for _, m := range c.Members {
			if length, known := prior[m.Name]; !known {
				report.Lines = append(report.Lines,
					fmt.Sprintf("%s: synthesized %s", c.Name, m.Name))
			} else if length != len(m.Body) {
				report.Lines = append(report.Lines,
					fmt.Sprintf("%s.%s: body rewritten", c.Name, m.Name))
			}
		}
	}
	return report, nil
}

// shape records each class's member names and body lengths before
// weaving, so the report can tell synthesized members from rewritten
// ones.
func shape(u *ir.Unit) map[ir.ClassID]map[string]int {
	ret := make(map[ir.ClassID]map[string]int, len(u.Classes()))
	for _, c := range u.Classes() {
		members := make(map[string]int, len(c.Members))
		for _, m := range c.Members {
			members[m.Name] = len(m.Body)
		}
		ret[c.ID] = members
	}
	return ret
}

// Main is called by the weave binary's main() code.
func (p *Planner) Main() {
	verbose := false
	noPre := false
	noPost := false
	noInv := false

	planCmd := &cobra.Command{
		Use:           "plan [manifests]",
		Short:         "Show the contract weaving performed for the given unit manifests",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sig := make(chan os.Signal, 1)
			defer close(sig)

			signal.Notify(sig, syscall.SIGINT)
			defer signal.Stop(sig)

			go func() {
				if _, open := <-sig; open {
					cmd.Println("Interrupted")
					cancel()
				}
			}()

			p.Files = args
			p.Config = contract.DefaultConfig()
			p.Config.Preconditions = !noPre
			p.Config.Postconditions = !noPost
			p.Config.Invariants = !noInv
			if verbose {
				p.Logger = log.New(cmd.OutOrStdout(), "" /* prefix */, 0 /* flags */)
			}

			reports, err := p.Execute(ctx)
			if err != nil {
				return err
			}
			for _, report := range reports {
				cmd.Printf("%s\n\n", report.StringRelative(p.Dir))
			}
			return nil
		},
	}
	planCmd.Flags().StringVarP(&p.Dir, "dir", "d",
		".", "override the current working directory")
	planCmd.Flags().BoolVar(&noPre, "no_preconditions",
		false, "leave precondition-bearing bodies unmodified")
	planCmd.Flags().BoolVar(&noPost, "no_postconditions",
		false, "leave postcondition-bearing bodies unmodified")
	planCmd.Flags().BoolVar(&noInv, "no_invariants",
		false, "skip invariant routines, setters and constructors")
	planCmd.Flags().BoolVarP(&verbose, "verbose", "v",
		false, "enable additional diagnostic messages")

	root := &cobra.Command{
		Use: p.Name,
	}
	root.AddCommand(planCmd)

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Exit(0)
}
