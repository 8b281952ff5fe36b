// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/sdk/core"
	"github.com/zintix-labs/ssalab/sdk/perf"
	"github.com/zintix-labs/ssalab/stats"
	"github.com/zintix-labs/ssalab/trajectory"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	outStdout = "-"
	outNone   = "none"
	sumNone   = "none"
)

type runOpts struct {
	seed       int64
	iterations int
	out        string
	precision  int
	summary    string
	progress   bool
	noGuard    bool
	pprof      string
	pprofDir   string
}

func newRunCmd(c *cli) *cobra.Command {
	o := &runOpts{}
	cmd := &cobra.Command{
		Use:   "run <network name | network file>",
		Short: "Simulate one trajectory and print it as TSV",
		Long: `Simulate one trajectory of a catalog network (by name) or of a network file
(.yaml, .yml, .json, .rxn). The trajectory is written as tab separated values:
a header "Time <species...>", the initial state, then one row after every event.
The run summary goes to stderr when the trajectory goes to stdout, otherwise to stdout.`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return c.runSim(cmd, a[0], o)
		},
	}
	f := cmd.Flags()
	f.Int64Var(&o.seed, "seed", -1, "seed for the random generator (negative: random)")
	f.IntVar(&o.iterations, "iterations", 0, "iteration budget (0: use the network's value)")
	f.StringVarP(&o.out, "out", "o", outStdout, `trajectory output: "-" stdout, "none", or a path (.gz / .zst compress)`)
	f.IntVar(&o.precision, "precision", trajectory.DefaultPrecision, "decimal places in the trajectory")
	f.StringVar(&o.summary, "summary", "text", "run summary: text|json|yaml|none")
	f.BoolVar(&o.progress, "progress", false, "show a progress bar on stderr")
	f.BoolVar(&o.noGuard, "no-guard", false, "disable the negative amount guard")
	f.StringVar(&o.pprof, "pprof", "", "profile the run: cpu|heap|allocs")
	f.StringVar(&o.pprofDir, "pprof-dir", perf.DefaultDir, "directory for pprof output")
	return cmd
}

func (c *cli) runSim(cmd *cobra.Command, target string, o *runOpts) error {
	if err := perf.Valid(o.pprof); err != nil {
		return err
	}
	if o.precision < 0 || o.precision > 17 {
		return errs.Configf("--precision must be in [0, 17], got %d", o.precision)
	}
	if o.summary != sumNone {
		if _, err := stats.RenderFor(o.summary, 0); err != nil {
			return err
		}
	}

	sim, err := c.newSimulator(target, o.seed)
	if err != nil {
		return err
	}
	sim.SetBudget(o.iterations)
	sim.SetNegativeGuard(!o.noGuard)
	sim.SetProgressWriter(c.stderr)

	sink, closeSink, err := c.openSink(o)
	if err != nil {
		return err
	}
	sumW := c.stdout
	if o.out == outStdout {
		sumW = c.stderr
	}

	if o.summary == "text" {
		p := message.NewPrinter(language.English)
		p.Fprintf(sumW, "\033[1;32m[NETWORK:%s] [SEED:%d] [ITERATIONS:%d] [RNG:%s]\033[0m\n",
			sim.Network.Name, sim.Seed(), sim.Budget(), c.rng)
	}

	var res *ssalab.Result
	path, runErr := perf.RunPProf(o.pprof, o.pprofDir, func() error {
		var err error
		res, err = sim.Run(cmd.Context(), sink, o.progress)
		return err
	})
	if err := closeSink(); err != nil && runErr == nil {
		runErr = err
	}
	if path != "" {
		cmd.PrintErrln("pprof written to", path)
	}

	if res != nil && res.Stats != nil && o.summary != sumNone {
		render, _ := stats.RenderFor(o.summary, res.Used)
		if err := res.Stats.WriteWith(sumW, render); err != nil && runErr == nil {
			runErr = errs.WrapKind(err, errs.KindIO, "write summary")
		}
	}
	if runErr != nil {
		return runErr
	}
	if res == nil || res.Report == nil {
		return errs.NewFatal("simulation produced no report")
	}
	return res.Report.Err()
}

// newSimulator target 是存在的網路檔案時直接載入，否則視為目錄中的網路名稱
func (c *cli) newSimulator(target string, seed int64) (*ssalab.Simulator, error) {
	if seed < 0 {
		s, err := core.NewSeed()
		if err != nil {
			return nil, err
		}
		seed = s
	}
	if st, err := os.Stat(target); err == nil && !st.IsDir() && network.IsNetworkFile(target) {
		net, err := network.Load(target)
		if err != nil {
			return nil, err
		}
		cf, err := core.Lookup(c.rng)
		if err != nil {
			return nil, err
		}
		return ssalab.NewStandalone(cf, net, seed, c.log)
	}
	lab, err := c.newLab()
	if err != nil {
		return nil, err
	}
	return lab.NewSimulatorWithSeed(target, seed)
}

func (c *cli) openSink(o *runOpts) (trajectory.Sink, func() error, error) {
	noop := func() error { return nil }
	switch o.out {
	case outNone:
		return nil, noop, nil
	case outStdout, "":
		o.out = outStdout
		return trajectory.NewTSV(c.stdout, o.precision), noop, nil
	default:
		f, err := trajectory.OpenFile(o.out, o.precision)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
}
