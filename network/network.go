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

// Package network 定義反應網路（ReactionNetwork）的資料模型與載入方式。
//
// Network 在 Validate 之後視為唯讀：物種順序即為數量向量的索引，
// 反應的化學計量向量長度固定等於物種數。引擎只讀取它，從不修改。
//
// 支援三種來源格式：
//   - YAML（.yaml / .yml）
//   - JSON（.json）
//   - 行導向文字格式（.rxn），見 ParseText。
package network

import (
	"fmt"
	"math"
	"strings"

	"github.com/zintix-labs/ssalab/errs"
)

// ErrInvalidNetwork 所有設定檔檢查失敗都會包裝此 sentinel，可用 errors.Is 判斷。
var ErrInvalidNetwork = errs.Config("invalid network")

// Species 物種：名稱與初始數量（語意上是非負整數，以 float64 保存方便運算）
type Species struct {
	Name   string  `yaml:"name"   json:"name"`
	Amount float64 `yaml:"amount" json:"amount"`
}

// Reaction 反應：化學計量變化向量與速率常數。
//
// Stoich[i] 為反應發生一次時物種 i 的淨變化量（負=消耗、正=生成、0=無關）。
// 設定檔可以只寫 Equation（例如 "2 A > B"），Init 時會轉成 Stoich。
type Reaction struct {
	Label    string  `yaml:"label,omitempty"    json:"label,omitempty"`
	Equation string  `yaml:"equation,omitempty" json:"equation,omitempty"`
	Stoich   []int   `yaml:"stoich,omitempty"   json:"stoich,omitempty"`
	Rate     float64 `yaml:"rate"               json:"rate"`
}

// Network 一個完整的反應網路描述
type Network struct {
	Name       string     `yaml:"name"       json:"name"`
	Volume     float64    `yaml:"volume"     json:"volume"`
	Iterations int        `yaml:"iterations" json:"iterations"`
	Species    []Species  `yaml:"species"    json:"species"`
	Reactions  []Reaction `yaml:"reactions"  json:"reactions"`
}

// Init 把只有 Equation 的反應展開成 Stoich，並執行 Validate。
// 所有 loader 都會呼叫它，直接組裝 struct 的呼叫端也應該呼叫。
func (n *Network) Init() error {
	idx := n.index()
	for i := range n.Reactions {
		r := &n.Reactions[i]
		if len(r.Stoich) != 0 || r.Equation == "" {
			continue
		}
		st, err := ParseEquation(r.Equation, idx, len(n.Species))
		if err != nil {
			return errs.WrapWithExtra(err, "parse reaction equation", fmt.Sprintf("reaction=%d", i))
		}
		r.Stoich = st
	}
	return n.Validate()
}

// Validate 執行模擬開始前的設定檢查。
// 所有問題會一次收集後回傳（包裝 ErrInvalidNetwork），不會只報第一個。
func (n *Network) Validate() error {
	var issues []string
	add := func(format string, a ...any) { issues = append(issues, fmt.Sprintf(format, a...)) }

	if !isFinite(n.Volume) || n.Volume <= 0 {
		add("volume must be a positive finite number, got %v", n.Volume)
	}
	if n.Iterations < 1 {
		add("iterations must be > 0, got %d", n.Iterations)
	}
	if len(n.Species) == 0 {
		add("at least one species is required")
	}

	seen := make(map[string]int, len(n.Species))
	for i, sp := range n.Species {
		name := strings.TrimSpace(sp.Name)
		switch {
		case name == "":
			add("species[%d]: name is required", i)
		case strings.ContainsAny(name, " \t|>+"):
			add("species[%d]: invalid name %q", i, sp.Name)
		default:
			if prev, ok := seen[name]; ok {
				add("species[%d]: duplicate name %q (first at %d)", i, name, prev)
			}
			seen[name] = i
		}
		if !isFinite(sp.Amount) || sp.Amount < 0 {
			add("species %q: amount must be a non-negative finite number, got %v", sp.Name, sp.Amount)
		} else if sp.Amount != math.Trunc(sp.Amount) {
			add("species %q: amount must be an integer count, got %v", sp.Name, sp.Amount)
		}
	}

	for i, r := range n.Reactions {
		if len(r.Stoich) != len(n.Species) {
			add("reaction[%d]: stoichiometry length %d != species count %d", i, len(r.Stoich), len(n.Species))
		}
		if !isFinite(r.Rate) || r.Rate <= 0 {
			add("reaction[%d]: rate constant must be a positive finite number, got %v", i, r.Rate)
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return errs.WrapWithExtra(ErrInvalidNetwork, fmt.Sprintf("network %q has %d issue(s)", n.Name, len(issues)), strings.Join(issues, "; "))
}

// Names 回傳物種名稱（依索引順序）
func (n *Network) Names() []string {
	out := make([]string, len(n.Species))
	for i, sp := range n.Species {
		out[i] = sp.Name
	}
	return out
}

// Amounts 回傳初始數量的複本；每次 run 都必須擁有自己的一份。
func (n *Network) Amounts() []float64 {
	out := make([]float64, len(n.Species))
	for i, sp := range n.Species {
		out[i] = sp.Amount
	}
	return out
}

// Index 依名稱查找物種索引
func (n *Network) Index(name string) (int, bool) {
	for i, sp := range n.Species {
		if sp.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Clone 深拷貝，用於在共享的網路上覆寫 Iterations 等參數。
func (n *Network) Clone() *Network {
	c := *n
	c.Species = append([]Species(nil), n.Species...)
	c.Reactions = make([]Reaction, len(n.Reactions))
	for i, r := range n.Reactions {
		r.Stoich = append([]int(nil), r.Stoich...)
		c.Reactions[i] = r
	}
	return &c
}

// Describe 以方程式形式輸出反應（"2 A > B"），用於報表與 log。
func (n *Network) Describe(i int) string {
	r := n.Reactions[i]
	if r.Label != "" {
		return r.Label
	}
	var lhs, rhs []string
	for j, v := range r.Stoich {
		if j >= len(n.Species) {
			break
		}
		switch {
		case v < 0:
			lhs = append(lhs, term(-v, n.Species[j].Name))
		case v > 0:
			rhs = append(rhs, term(v, n.Species[j].Name))
		}
	}
	return side(lhs) + " > " + side(rhs)
}

func term(coef int, name string) string {
	if coef == 1 {
		return name
	}
	return fmt.Sprintf("%d %s", coef, name)
}

func side(terms []string) string {
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, " + ")
}

func (n *Network) index() map[string]int {
	m := make(map[string]int, len(n.Species))
	for i, sp := range n.Species {
		m[strings.TrimSpace(sp.Name)] = i
	}
	return m
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
