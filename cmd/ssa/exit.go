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
	"errors"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/ssalab/catalog"
	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/errs"
)

// exit codes
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitDiverged  = 3
	ExitSelection = 4
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, engine.ErrSelectionMiss):
		return ExitSelection
	case errors.Is(err, engine.ErrDiverged):
		return ExitDiverged
	case errors.Is(err, catalog.ErrNotFound), errs.KindOf(err) == errs.KindConfig:
		return ExitConfig
	default:
		return ExitFailure
	}
}

// usageErr 把 cobra 的參數 / flag 錯誤標記為設定錯誤
func usageErr(err error) error {
	if err == nil {
		return nil
	}
	return errs.WrapKind(err, errs.KindConfig, "usage")
}

func args(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		return usageErr(fn(cmd, a))
	}
}
