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

// Package core 提供模擬引擎使用的亂數核心（RandomSource）。
//
// 原則：一次模擬（run）只建立一個 PRNG，seed 只設定一次，之後持續推進內部狀態。
// 絕不在每次取樣時重新以時鐘 seed，否則高頻呼叫時可能得到相同或相關的亂數，
// 悄悄破壞軌跡的統計正確性。
package core

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/zintix-labs/ssalab/errs"
)

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// Float64 的精度與生成方式由 PRNG 自己決定（32-bit 原生輸出的實作也要拼出 53-bit）。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
}

// PRNGFactory 以 seed 建立 PRNG。
//
// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的，
// 相同 seed 必須產生相同的輸出序列（測試與重播都依賴這點）。
type PRNGFactory interface {
	New(int64) PRNG
}

// FactoryFunc 讓一般函數滿足 PRNGFactory。
type FactoryFunc func(int64) PRNG

func (f FactoryFunc) New(seed int64) PRNG { return f(seed) }

// named 內建工廠，帶有名稱方便記錄在報表中
type named struct {
	name string
	fn   func(int64) PRNG
}

func (n named) New(seed int64) PRNG { return n.fn(seed) }
func (n named) Name() string        { return n.name }

var factories = map[string]PRNGFactory{
	"pcg64": named{"pcg64", func(seed int64) PRNG { return newPCG64WithSeed(seed) }},
	"pcg32": named{"pcg32", func(seed int64) PRNG { return newPCG32WithSeed(seed) }},
}

// NameOf 回傳工廠名稱；外部自實現的工廠回傳 "custom"
func NameOf(f PRNGFactory) string {
	if n, ok := f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

// DefaultName 預設 PRNG 名稱
const DefaultName = "pcg64"

// Default 回傳預設的 PCG64 工廠。
func Default() PRNGFactory {
	return factories[DefaultName]
}

// Lookup 依名稱取得 PRNG 工廠（大小寫不敏感），空字串回傳預設值。
func Lookup(name string) (PRNGFactory, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	f, ok := factories[name]
	if !ok {
		return nil, errs.Configf("unknown rng %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names 回傳所有可用 PRNG 名稱（排序後）。
func Names() []string {
	names := make([]string, 0, len(factories))
	for k := range factories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// NewSeed 由加密亂數來源產生一個非負 int64 seed。
// 只在呼叫端沒有給 seed 時於 run 開始前呼叫一次。
func NewSeed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return 0, errs.Wrap(err, "seed generate failed")
	}
	return seed.Int64(), nil
}

// Core 封裝 PRNG，並提供模擬常用的取樣方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewWithSeed 以預設工廠與指定 seed 建立 Core。
func NewWithSeed(seed int64) *Core {
	return New(Default().New(seed))
}

// OpenFloat64 回傳開區間 (0,1) 的均勻亂數（53-bit 精度）。
//
// 0 會被拒絕重抽，因此 ln(1/r) 永遠是有限正數；
// 最大值為 1-2^-53，因此永遠小於 1。
func (c *Core) OpenFloat64() float64 {
	for {
		v := c.Uint64() >> 11
		if v != 0 {
			return float64(v) / (1 << 53)
		}
	}
}

// String 方便在 log 中辨識 PRNG 實作。
func (c *Core) String() string {
	return fmt.Sprintf("core(%T)", c.PRNG)
}
