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

package propensity

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/zintix-labs/ssalab/network"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		stoich []int
		kind   Kind
		a, b   int
	}{
		{"source", []int{1, 0, 0}, Formation, -1, -1},
		{"pure source all zero", []int{0, 0, 0}, Formation, -1, -1},
		{"decay", []int{-1, 1, 0}, Unimolecular, 0, -1},
		{"dimer", []int{0, -2, 1}, BimolecularSame, 1, -1},
		{"cross", []int{-1, 0, -1}, BimolecularCross, 0, 2},
		{"catalytic net zero", []int{0, 1, -1}, Unimolecular, 2, -1},
	}
	for _, c := range cases {
		kind, a, b, err := Classify(c.stoich)
		if err != nil {
			t.Fatalf("[%s] unexpected err: %v", c.name, err)
		}
		if kind != c.kind || a != c.a || b != c.b {
			t.Fatalf("[%s] got (%s,%d,%d), want (%s,%d,%d)", c.name, kind, a, b, c.kind, c.a, c.b)
		}
	}
}

func TestClassifyRejectsHigherOrder(t *testing.T) {
	for _, st := range [][]int{{-3, 0}, {-2, -1}, {-1, -1, -1}} {
		_, _, _, err := Classify(st)
		if !errors.Is(err, ErrUnsupportedOrder) {
			t.Fatalf("stoich %v: expected ErrUnsupportedOrder, got %v", st, err)
		}
	}
}

func TestEvalFormulas(t *testing.T) {
	x := []float64{10, 4, 0}
	const k, v = 0.5, 2.0

	check := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("[%s] got %v want %v", name, got, want)
		}
	}
	check("formation", Law{Kind: Formation, Rate: k, Volume: v}.Eval(x), 0.5)
	check("uni", Law{Kind: Unimolecular, Rate: k, Volume: v, A: 0}.Eval(x), 5)
	// (2k/V)·x·(x-1)/2 = (1/2)·10·9/2 = 22.5
	check("same", Law{Kind: BimolecularSame, Rate: k, Volume: v, A: 0}.Eval(x), 22.5)
	// (k/V)·x_a·x_b = 0.25·10·4 = 10
	check("cross", Law{Kind: BimolecularCross, Rate: k, Volume: v, A: 0, B: 1}.Eval(x), 10)
}

func TestEvalZeroWhenReactantMissing(t *testing.T) {
	x := []float64{0, 5}
	laws := []Law{
		{Kind: Unimolecular, Rate: 3, Volume: 1, A: 0},
		{Kind: BimolecularSame, Rate: 3, Volume: 1, A: 0},
		{Kind: BimolecularCross, Rate: 3, Volume: 1, A: 0, B: 1},
		{Kind: BimolecularCross, Rate: 3, Volume: 1, A: 1, B: 0},
	}
	for _, l := range laws {
		if got := l.Eval(x); got != 0 {
			t.Fatalf("%s: expected 0, got %v", l, got)
		}
	}
	if got := (Law{Kind: Formation, Rate: 3}).Eval(x); got != 3 {
		t.Fatalf("formation must be constant, got %v", got)
	}
}

// 同物種雙分子反應：數量 0 或 1 時無法配對
func TestBimolecularSameNeedsPair(t *testing.T) {
	l := Law{Kind: BimolecularSame, Rate: 7, Volume: 0.3, A: 0}
	for _, n := range []float64{0, 1} {
		if got := l.Eval([]float64{n}); got != 0 {
			t.Fatalf("amount %v: expected 0, got %v", n, got)
		}
	}
	if got := l.Eval([]float64{2}); got <= 0 {
		t.Fatalf("amount 2 must be positive, got %v", got)
	}
}

func TestNonNegativeForNonNegativeAmounts(t *testing.T) {
	laws := []Law{
		{Kind: Formation, Rate: 1.5, Volume: 2},
		{Kind: Unimolecular, Rate: 1.5, Volume: 2, A: 0},
		{Kind: BimolecularSame, Rate: 1.5, Volume: 2, A: 1},
		{Kind: BimolecularCross, Rate: 1.5, Volume: 2, A: 0, B: 1},
	}
	for a := 0.0; a < 20; a++ {
		for b := 0.0; b < 20; b++ {
			x := []float64{a, b}
			for _, l := range laws {
				if got := l.Eval(x); got < 0 {
					t.Fatalf("%s negative at %v: %v", l, x, got)
				}
			}
		}
	}
}

func TestEvalDoesNotMutate(t *testing.T) {
	x := []float64{3, 8}
	orig := slices.Clone(x)
	_ = Law{Kind: BimolecularCross, Rate: 1, Volume: 1, A: 0, B: 1}.Eval(x)
	if !slices.Equal(x, orig) {
		t.Fatalf("Eval mutated amounts: %v", x)
	}
}

// 綁定的是索引，數量向量被重新配置後仍然讀到正確位置
func TestBindingSurvivesReallocation(t *testing.T) {
	l := Law{Kind: Unimolecular, Rate: 2, Volume: 1, A: 1}
	x := []float64{1, 5}
	y := append(make([]float64, 0, 64), x...)
	y[1] = 6
	if l.Eval(x) != 10 || l.Eval(y) != 12 {
		t.Fatalf("index binding broken")
	}
}

func TestBind(t *testing.T) {
	n := &network.Network{
		Name: "mix", Volume: 2, Iterations: 1,
		Species: []network.Species{{Name: "A", Amount: 1}, {Name: "B", Amount: 1}},
		Reactions: []network.Reaction{
			{Stoich: []int{1, 0}, Rate: 1},
			{Stoich: []int{-1, 1}, Rate: 1},
			{Stoich: []int{-2, 1}, Rate: 1},
			{Stoich: []int{-1, -1}, Rate: 1},
		},
	}
	laws, err := Bind(n)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	want := []Kind{Formation, Unimolecular, BimolecularSame, BimolecularCross}
	for i, l := range laws {
		if l.Kind != want[i] || l.Volume != 2 {
			t.Fatalf("law %d: got %s", i, l)
		}
	}

	n.Reactions = append(n.Reactions, network.Reaction{Stoich: []int{-3, 1}, Rate: 1})
	if _, err := Bind(n); !errors.Is(err, ErrUnsupportedOrder) {
		t.Fatalf("expected ErrUnsupportedOrder, got %v", err)
	}
}
