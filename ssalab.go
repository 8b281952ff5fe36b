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

// Package ssalab 提供隨機模擬引擎的「組裝入口（assembler）」。
//
// Lab 把兩個地基組裝在一起，並提供建立 Simulator 的入口：
//  1. Catalog：反應網路目錄，定義有哪些網路、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證同一個 seed 可以重現同一條軌跡。
//
// Lab 本身不綁定任何「檔案路徑」：設定檔來源一律以 fs.FS 注入
// （go:embed、os.DirFS 或測試用的 fstest.MapFS）。
//
// 使用流程分成兩階段：
//   - 註冊階段：建立 catalog、掃描設定檔、檢查重複與格式。
//   - 執行階段：Freeze 後依網路名稱建立 Simulator。
//
//	lab, _ := ssalab.NewAuto(core.Default(), ssalab.Networks(networks.FS))
//	sim, _ := lab.NewSimulatorWithSeed("decay", 42)
//	res, _ := sim.Run(ctx, trajectory.NewTSV(os.Stdout, trajectory.DefaultPrecision), false)
package ssalab

import (
	"io/fs"
	"log/slog"

	"github.com/zintix-labs/ssalab/catalog"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/sdk/core"
)

// Networks 把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
func Networks(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 組裝器
type Lab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	log *slog.Logger
	sum []catalog.Summary
}

// New 建立一個 Lab（註冊階段）。cf 不能為 nil，cfgs 至少一個。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("network sources required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata, cf: cf, log: slog.New(slog.DiscardHandler)}, nil
}

// NewAuto 建立 Lab、註冊所有設定檔並 Freeze，直接進入執行階段。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

// SetLogger 設定之後建立的 Simulator 使用的 logger（nil 忽略）
func (l *Lab) SetLogger(log *slog.Logger) {
	if log != nil {
		l.log = log
	}
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll 解析每一個可辨識的設定檔，以網路名稱（未宣告時為檔名主體）批次註冊。
//
//  1. Fail-fast：任何檔案讀取、解析或檢查失敗都立刻回傳 error。
//  2. 原子性：全部成功後才一次寫入 catalog。
//  3. 穩定性：依檔名排序處理。
func (l *Lab) RegisterAll() error {
	files := l.cat.Cfg().Files()
	if len(files) == 0 {
		return errs.Config("no network files found to register")
	}
	entries := make([]catalog.Entry, 0, len(files))
	seen := map[string]string{}
	for _, file := range files {
		src, err := l.cat.Cfg().GetFS(file)
		if err != nil {
			return errs.WrapWithExtra(err, "locate network file failed", file)
		}
		net, err := network.LoadFS(src, file)
		if err != nil {
			return errs.WrapWithExtra(err, "load network failed", file)
		}
		key := catalog.Key(net.Name)
		if prev, ok := seen[key]; ok {
			return errs.Configf("duplicate network name: %s (file=%s and %s)", key, prev, file)
		}
		seen[key] = file
		entries = append(entries, catalog.Entry{Name: net.Name, ConfigName: file})
	}
	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) Names() []string {
	return l.cat.Names()
}

// Network 回傳網路的新實例
func (l *Lab) Network(name string) (*network.Network, error) {
	return l.cat.Network(name)
}

// Summary 所有網路的摘要（Freeze 後才可呼叫，結果會快取）
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, catalog.ErrNotFrozen
	}
	if l.sum != nil {
		return l.sum, nil
	}
	sum, err := l.cat.Summaries()
	if err != nil {
		return nil, err
	}
	l.sum = sum
	return l.sum, nil
}

// NewSimulator 依網路名稱建立 Simulator，seed 由 crypto/rand 產生。
func (l *Lab) NewSimulator(name string) (*Simulator, error) {
	seed, err := core.NewSeed()
	if err != nil {
		return nil, err
	}
	return l.NewSimulatorWithSeed(name, seed)
}

// NewSimulatorWithSeed 與 NewSimulator 相同，但由呼叫端指定初始 seed。
// 同一份網路 + 同一個 seed 的第一次 Run 一定得到同一條軌跡。
func (l *Lab) NewSimulatorWithSeed(name string, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, catalog.ErrNotFrozen
	}
	net, err := l.cat.Network(name)
	if err != nil {
		return nil, err
	}
	return l.NewSimulatorFor(net, seed)
}

// NewSimulatorFor 以呼叫端提供的網路（例如 HTTP 內嵌的 JSON）建立 Simulator。
// 網路會被深拷貝，之後呼叫端修改不影響模擬。
func (l *Lab) NewSimulatorFor(net *network.Network, seed int64) (*Simulator, error) {
	return NewStandalone(l.cf, net, seed, l.log)
}

// NewStandalone 不經過 catalog，直接以網路與 PRNG 工廠建立 Simulator（單一檔案的 CLI 執行）。
// log 為 nil 時丟棄。
func NewStandalone(cf core.PRNGFactory, net *network.Network, seed int64, log *slog.Logger) (*Simulator, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if net == nil {
		return nil, errs.Config("network is required")
	}
	cp := net.Clone()
	if err := cp.Init(); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cp, cf, seed, log), nil
}
