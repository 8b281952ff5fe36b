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
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/demo/networks"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/sdk/core"
	"github.com/zintix-labs/ssalab/server/logger"
)

// cli 所有子命令共用的狀態
type cli struct {
	stdout, stderr io.Writer

	logMode string
	rng     string
	dirs    []string
	noDemo  bool

	log *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "ssa",
		Short:         "Exact stochastic simulation (Gillespie direct method) of reaction networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := logger.ParseMode(c.logMode)
			if err != nil {
				return err
			}
			c.log = logger.NewLoggerTo(c.stderr, mode)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageErr(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&c.logMode, "log", "silence", "log mode: dev|prod|silence (logs go to stderr)")
	pf.StringVar(&c.rng, "rng", core.DefaultName, "random generator: pcg64|pcg32")
	pf.StringArrayVar(&c.dirs, "networks", nil, "extra flat directory of network files (repeatable)")
	pf.BoolVar(&c.noDemo, "no-demo", false, "do not load the embedded demo networks")

	root.AddCommand(
		newRunCmd(c),
		newValidateCmd(c),
		newNetworksCmd(c),
		newServeCmd(c),
	)
	return root
}

// newLab 內嵌示範網路加上 --networks 目錄
func (c *cli) newLab() (*ssalab.Lab, error) {
	cf, err := core.Lookup(c.rng)
	if err != nil {
		return nil, err
	}
	var src []fs.FS
	if !c.noDemo {
		src = append(src, networks.FS)
	}
	for _, d := range c.dirs {
		st, err := os.Stat(d)
		if err != nil || !st.IsDir() {
			return nil, errs.Configf("--networks %q is not a directory", d)
		}
		src = append(src, os.DirFS(d))
	}
	if len(src) == 0 {
		return nil, errs.Config("no network sources: drop --no-demo or add --networks")
	}
	lab, err := ssalab.NewAuto(cf, ssalab.Networks(src...))
	if err != nil {
		return nil, err
	}
	lab.SetLogger(c.log)
	return lab, nil
}
