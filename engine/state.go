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

import "slices"

// State 模擬狀態：目前時間與各物種數量。由單一 Engine 獨佔並原地更新。
type State struct {
	Time    float64
	Amounts []float64
}

// NewState 以初始數量的複本建立狀態，時間從 0 開始
func NewState(amounts []float64) State {
	return State{Amounts: slices.Clone(amounts)}
}

// Apply 套用一次反應的化學計量變化
func (s *State) Apply(stoich []int) {
	for i, d := range stoich {
		if d != 0 {
			s.Amounts[i] += float64(d)
		}
	}
}

// Negative 回傳第一個數量為負的物種索引，沒有則回傳 -1
func (s *State) Negative() int {
	for i, v := range s.Amounts {
		if v < 0 {
			return i
		}
	}
	return -1
}
