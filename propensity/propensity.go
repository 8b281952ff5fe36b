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

// Package propensity 實作反應速率律（propensity function）。
//
// 速率律是一個封閉的變體集合：
//
//	Formation         0 > ...          a = k
//	Unimolecular      A > ...          a = k·x
//	BimolecularSame   2 A > ...        a = (2k/V)·x·(x-1)/2
//	BimolecularCross  A + B > ...      a = (k/V)·x_a·x_b
//
// 變體集合不會再擴充，因此以 Kind 標記 + 單一 Eval switch 靜態分派，
// 而不是開放式的介面實作。
//
// Law 只保存物種的「索引」，在 Eval 時才對目前的數量向量取值，
// 所以數量向量被重新配置也不會讓綁定失效。
package propensity

import (
	"fmt"

	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
)

// ErrUnsupportedOrder 反應消耗三個以上單位（或三種以上物種）時回傳
var ErrUnsupportedOrder = errs.Config("unsupported reaction order")

// Kind 速率律種類
type Kind uint8

const (
	Formation Kind = iota
	Unimolecular
	BimolecularSame
	BimolecularCross
)

var kindName = [...]string{
	Formation:        "formation",
	Unimolecular:     "unimolecular",
	BimolecularSame:  "bimolecular-same",
	BimolecularCross: "bimolecular-cross",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Law 單一反應的速率律，建立後不再改變。
//
// A / B 為反應物索引；不使用的欄位為 -1。
type Law struct {
	Kind   Kind
	Rate   float64
	Volume float64
	A      int
	B      int
}

// Classify 依化學計量向量的負值項目決定速率律種類與反應物索引。
//
// d = 被消耗的相異物種數，u = 被消耗的總單位數：
//
//	d=0,u=0 Formation; d=1,u=1 Unimolecular; d=1,u=2 BimolecularSame; d=2,u=2 BimolecularCross
//
// 其他組合回傳 ErrUnsupportedOrder。
func Classify(stoich []int) (kind Kind, a int, b int, err error) {
	a, b = -1, -1
	distinct, units := 0, 0
	for i, v := range stoich {
		if v >= 0 {
			continue
		}
		distinct++
		units -= v
		switch distinct {
		case 1:
			a = i
		case 2:
			b = i
		}
	}

	switch {
	case distinct == 0:
		return Formation, -1, -1, nil
	case distinct == 1 && units == 1:
		return Unimolecular, a, -1, nil
	case distinct == 1 && units == 2:
		return BimolecularSame, a, -1, nil
	case distinct == 2 && units == 2:
		return BimolecularCross, a, b, nil
	default:
		return 0, -1, -1, errs.WrapWithExtra(ErrUnsupportedOrder,
			"reaction consumes more than two units",
			fmt.Sprintf("distinct=%d units=%d", distinct, units))
	}
}

// New 建立單一反應的速率律
func New(stoich []int, rate float64, volume float64) (Law, error) {
	kind, a, b, err := Classify(stoich)
	if err != nil {
		return Law{}, err
	}
	return Law{Kind: kind, Rate: rate, Volume: volume, A: a, B: b}, nil
}

// Bind 為網路中的每個反應建立速率律（順序與 Reactions 相同）。
func Bind(n *network.Network) ([]Law, error) {
	laws := make([]Law, len(n.Reactions))
	for i, r := range n.Reactions {
		l, err := New(r.Stoich, r.Rate, n.Volume)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "bind propensity", fmt.Sprintf("reaction=%d (%s)", i, n.Describe(i)))
		}
		laws[i] = l
	}
	return laws, nil
}

// Eval 以目前的數量向量計算瞬時 propensity。純讀取，不修改 x。
func (l Law) Eval(x []float64) float64 {
	switch l.Kind {
	case Formation:
		return l.Rate
	case Unimolecular:
		return l.Rate * x[l.A]
	case BimolecularSame:
		n := x[l.A]
		return (l.Rate * 2 / l.Volume) * n * (n - 1) / 2
	case BimolecularCross:
		return (l.Rate / l.Volume) * x[l.A] * x[l.B]
	default:
		panic("propensity: unknown kind " + l.Kind.String())
	}
}

// String 方便除錯輸出
func (l Law) String() string {
	switch l.Kind {
	case Formation:
		return fmt.Sprintf("%s(k=%g)", l.Kind, l.Rate)
	case Unimolecular, BimolecularSame:
		return fmt.Sprintf("%s(k=%g, x%d)", l.Kind, l.Rate, l.A)
	default:
		return fmt.Sprintf("%s(k=%g, x%d, x%d)", l.Kind, l.Rate, l.A, l.B)
	}
}
