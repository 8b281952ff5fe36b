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

// Package perf 以 runtime/pprof 包住一段執行，輸出 cpu / heap / allocs profile。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"

	"github.com/zintix-labs/ssalab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// Modes 支援的模式；空字串代表不做 profiling
var Modes = []string{"cpu", "heap", "allocs"}

// Valid mode 是否可用
func Valid(mode string) error {
	if mode == "" || slices.Contains(Modes, mode) {
		return nil
	}
	return errs.Configf("unknown pprof mode %q (cpu, heap, allocs)", mode)
}

// RunPProf 依 mode 執行 exe 並把 profile 寫到 dir/<mode>.pprof，回傳檔案路徑（mode 為空時為 ""）。
// exe 的錯誤原樣回傳；profile 寫入失敗時回傳 KindIO 錯誤。
func RunPProf(mode, dir string, exe func() error) (string, error) {
	if err := Valid(mode); err != nil {
		return "", err
	}
	if mode == "" {
		return "", exe()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.WrapKind(err, errs.KindIO, "create pprof dir")
	}
	path := filepath.Join(dir, mode+".pprof")
	f, err := os.Create(path)
	if err != nil {
		return "", errs.WrapKind(err, errs.KindIO, "create "+path)
	}
	defer f.Close()

	switch mode {
	case "cpu":
		return path, pprofCPU(f, exe)
	case "heap":
		return path, pprofAfter(f, "heap", exe)
	default:
		return path, pprofAfter(f, "allocs", exe)
	}
}

func pprofCPU(f *os.File, exe func() error) error {
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.WrapKind(err, errs.KindIO, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// pprofAfter 先執行，再拍快照
func pprofAfter(f *os.File, name string, exe func() error) error {
	runErr := exe()
	if name == "heap" {
		runtime.GC()
	}
	if prof := pprof.Lookup(name); prof != nil {
		if err := prof.WriteTo(f, 0); err != nil {
			return errs.WrapKind(err, errs.KindIO, "write "+name+" profile")
		}
	}
	return runErr
}
