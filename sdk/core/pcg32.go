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

package core

import (
	"encoding/binary"
	"math/bits"

	"github.com/zintix-labs/ssalab/errs"
)

const pcg32Multiplier = 6364136223846793005

// PCG32 為 64-bit 狀態、32-bit 輸出的 PCG (XSH RR) 產生器。
// 介面對齊 PCG64，便於在 core.Core 中互換。
type PCG32 struct {
	state uint64
	inc   uint64
}

func newPCG32WithSeed(seed int64) *PCG32 {
	r := &PCG32{}
	r.initWithSeed(seed, 1)
	return r
}

// Uint32 回傳非負整數uint32亂數。
func (r *PCG32) Uint32() uint32 {
	return r.nextUint32()
}

// Uint64 由兩次 32-bit 輸出拼接。
func (r *PCG32) Uint64() uint64 {
	return (uint64(r.nextUint32()) << 32) | uint64(r.nextUint32())
}

// Float64 回傳 [0,1) 的浮點亂數。
// 原生輸出只有 32 bits，這裡拼成 53 bits，避免 (0,1) 取樣的解析度太粗。
func (r *PCG32) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Snapshot 取得當下內部狀態（state, inc 各 8 bytes，big endian）
func (r *PCG32) Snapshot() ([]byte, error) {
	b := make([]byte, 0, 16)
	b = binary.BigEndian.AppendUint64(b, r.state)
	b = binary.BigEndian.AppendUint64(b, r.inc)
	return b, nil
}

// Restore 以 Snapshot 的輸出還原狀態
func (r *PCG32) Restore(data []byte) error {
	if len(data) != 16 {
		return errs.NewFatal("pcg32 restore: snapshot must be 16 bytes")
	}
	inc := binary.BigEndian.Uint64(data[8:])
	if inc&1 == 0 {
		return errs.NewFatal("pcg32 restore: increment must be odd")
	}
	r.state = binary.BigEndian.Uint64(data[:8])
	r.inc = inc
	return nil
}

// PCG 建議的初始化流程：先用 stream 初始化一次，再加 seed，最後再 step。
func (r *PCG32) initWithSeed(baseSeed int64, seq uint64) {
	r.state = 0
	r.inc = (seq << 1) | 1
	r.nextUint32()
	r.state += uint64(baseSeed)
	r.nextUint32()
}

func (r *PCG32) nextUint32() uint32 {
	oldstate := r.state
	r.state = oldstate*pcg32Multiplier + r.inc
	xorshifted := uint32(((oldstate >> 18) ^ oldstate) >> 27)
	rot := uint32(oldstate >> 59)
	return bits.RotateLeft32(xorshifted, -int(rot))
}
