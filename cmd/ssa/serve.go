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
	"github.com/spf13/cobra"
	"github.com/zintix-labs/ssalab/server"
	"github.com/zintix-labs/ssalab/server/logger"
	"github.com/zintix-labs/ssalab/server/netsvr"
	"github.com/zintix-labs/ssalab/server/svrcfg"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr    string
		maxIter int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations over HTTP (TSV, JSON and websocket streams)",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := logger.ModeDev
			if cmd.Flags().Changed("log") {
				m, err := logger.ParseMode(c.logMode)
				if err != nil {
					return err
				}
				mode = m
			}
			log, ah := logger.NewAsync(4096, mode)
			defer ah.Close()
			c.log = log

			lab, err := c.newLab()
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), &svrcfg.SvrCfg{
				Log:           log,
				Lab:           lab,
				Addr:          addr,
				MaxIterations: maxIter,
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", netsvr.DefaultAddr, "listen address")
	cmd.Flags().IntVar(&maxIter, "max-iterations", svrcfg.DefaultMaxIterations, "largest iteration budget a request may ask for")
	return cmd
}
