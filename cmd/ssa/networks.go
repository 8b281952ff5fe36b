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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/zintix-labs/ssalab/catalog"
	"github.com/zintix-labs/ssalab/errs"
	"gopkg.in/yaml.v3"
)

func newNetworksCmd(c *cli) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List the registered networks",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			lab, err := c.newLab()
			if err != nil {
				return err
			}
			sum, err := lab.Summary()
			if err != nil {
				return err
			}
			return writeSummaries(c.stdout, format, sum)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output: text|json|yaml")
	return cmd
}

func writeSummaries(w io.Writer, format string, sum []catalog.Summary) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(sum)
	case "text", "":
		width := 0
		for _, s := range sum {
			width = max(width, runewidth.StringWidth(s.Name))
		}
		for _, s := range sum {
			fmt.Fprintf(w, "%s  %-22s species=%-3d reactions=%-3d volume=%g iterations=%d\n",
				runewidth.FillRight(s.Name, width), s.File, len(s.Species), len(s.Reactions), s.Volume, s.Iterations)
			for _, r := range s.Reactions {
				fmt.Fprintf(w, "%s    %s\n", runewidth.FillRight("", width), r)
			}
		}
		return nil
	default:
		return errs.Configf("unknown format %q (text, json, yaml)", format)
	}
}
