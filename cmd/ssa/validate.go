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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/propensity"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check network files without simulating",
		Long: `Parse every file, expand reaction equations, validate the network and classify
each reaction's propensity law. All files are checked; the first failure decides
the exit code.`,
		Args: args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, files []string) error {
			var first error
			for _, f := range files {
				msg, err := validateFile(f)
				if err != nil {
					fmt.Fprintf(c.stdout, "FAIL\t%s\t%v\n", f, err)
					if first == nil {
						first = err
					}
					continue
				}
				fmt.Fprintf(c.stdout, "ok\t%s\t%s\n", f, msg)
			}
			if first != nil {
				return errs.Wrap(first, "validation failed")
			}
			return nil
		},
	}
}

func validateFile(path string) (string, error) {
	net, err := network.Load(path)
	if err != nil {
		return "", err
	}
	laws, err := propensity.Bind(net)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %d species, %d reactions, iterations=%d", net.Name, len(net.Species), len(laws), net.Iterations), nil
}
