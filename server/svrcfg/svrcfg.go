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

package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/server/logger"
	"github.com/zintix-labs/ssalab/server/netsvr"
)

// 單一請求可要求的迭代上限；HTTP 層不允許無上限的模擬
const (
	DefaultMaxIterations = 1_000_000
	HardMaxIterations    = 50_000_000
	DefaultMaxBodyBytes  = 1 << 20
)

type SvrCfg struct {
	Log           *slog.Logger
	Lab           *ssalab.Lab
	Addr          string
	MaxIterations int
	MaxBodyBytes  int64
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.Addr == "" {
		sc.Addr = netsvr.DefaultAddr
	}
	if sc.MaxIterations <= 0 {
		sc.MaxIterations = DefaultMaxIterations
	}
	sc.MaxIterations = min(HardMaxIterations, sc.MaxIterations)
	if sc.MaxBodyBytes <= 0 {
		sc.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return nil
}
