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

package engine

import (
	"math"

	"github.com/zintix-labs/ssalab/propensity"
	"gonum.org/v1/gonum/floats"
)

// Table 每一步重建的 propensity 表。
//
//	Raw[i]   = a_i
//	A0       = Σ a_i（實數和）
//	Norm[i]  = a_i / A0
//	Cumul[i] = Σ_{j<=i} Norm[j]
//
// Norm 與 Cumul 只在 A0 為正的有限值時才有意義。
type Table struct {
	Raw   []float64
	Norm  []float64
	Cumul []float64
	A0    float64
}

// NewTable 建立 n 個反應的表
func NewTable(n int) *Table {
	return &Table{
		Raw:   make([]float64, n),
		Norm:  make([]float64, n),
		Cumul: make([]float64, n),
	}
}

// Refresh 以目前數量重新計算整張表。
//
// 任一 a_i 非有限值或為負時立即停止並回傳其索引（表內容不可再使用）；
// 正常時回傳 -1。A0 為 0 或非有限值時不做正規化，由呼叫端判斷。
func (t *Table) Refresh(laws []propensity.Law, amounts []float64) int {
	for i := range laws {
		a := laws[i].Eval(amounts)
		if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			t.A0 = math.NaN()
			return i
		}
		t.Raw[i] = a
	}
	t.A0 = floats.Sum(t.Raw)
	if t.A0 <= 0 || math.IsInf(t.A0, 0) {
		return -1
	}
	// 逐項除以 A0；A0 為次正規數時 1/A0 會溢位成 Inf
	for i, a := range t.Raw {
		t.Norm[i] = a / t.A0
	}
	floats.CumSum(t.Cumul, t.Norm)
	return -1
}

// Select 反 CDF 抽樣：回傳最小的 μ 使 Cumul[μ] - r > 0。
// 找不到時回傳 false（浮點誤差讓 r 超過最後的累積值），呼叫端不得自行補選。
func (t *Table) Select(r float64) (int, bool) {
	for i, c := range t.Cumul {
		if c-r > 0 {
			return i, true
		}
	}
	return -1, false
}

// WaitingTime τ = (1/a0)·ln(1/r)，r ∈ (0,1)
func WaitingTime(a0, r float64) float64 {
	return (1 / a0) * math.Log(1/r)
}
