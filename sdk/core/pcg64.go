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

// PCG64 以 math/rand/v2 的 PCG (128-bit state) 為底層。
//
// The PCG algorithm is designed by Melissa O'Neill.

package core

import (
	r2 "math/rand/v2"
)

// PCG64 亂數產生器
type PCG64 struct {
	rng *r2.PCG
}

// newPCG64WithSeed 以指定 seed 建立新的 PCG64 實例。
// seed 先經 splitmix64 展開成兩個 64-bit 狀態，避免相鄰 seed 產生相近序列。
func newPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ (0x9e3779b97f4a7c15)
	hi := splitmix64(x)
	lo := splitmix64(x ^ 0xDA942042E4DD58B5)
	return &PCG64{rng: r2.NewPCG(hi, lo)}
}

// Uint64 回傳非負整數uint64亂數
func (r *PCG64) Uint64() uint64 {
	return r.rng.Uint64()
}

// Float64 產出float64(53bits精度)，範圍 [0,1)
func (r *PCG64) Float64() float64 {
	return float64(r.Uint64()<<11>>11) / (1 << 53)
}

// Restore 恢復內部狀態
func (r *PCG64) Restore(data []byte) error {
	return r.rng.UnmarshalBinary(data)
}

// Snapshot 取得當下內部狀態
func (r *PCG64) Snapshot() ([]byte, error) {
	return r.rng.MarshalBinary()
}

// splitmix64 將輸入值混洗成新的 64-bit 狀態，用於種子展開。
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
