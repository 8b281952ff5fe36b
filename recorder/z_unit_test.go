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

package recorder_test

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/recorder"
	"github.com/zintix-labs/ssalab/sdk/core"
	"github.com/zintix-labs/ssalab/trajectory"
)

func birthDeath() *network.Network {
	return &network.Network{
		Name:       "bd",
		Volume:     1,
		Iterations: 2000,
		Species:    []network.Species{{Name: "X", Amount: 5}},
		Reactions: []network.Reaction{
			{Stoich: []int{1}, Rate: 10},
			{Stoich: []int{-1}, Rate: 1},
		},
	}
}

func run(t *testing.T, net *network.Network, seed int64) (*recorder.Recorder, *engine.Report, *trajectory.Memory) {
	t.Helper()
	rec, err := recorder.New(net, 0)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	mem := &trajectory.Memory{}
	e, err := engine.New(net, core.NewWithSeed(seed), trajectory.Multi(mem, rec), engine.WithObserver(rec))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	rep, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return rec, rep, mem
}

func TestRecorderMatchesTrajectory(t *testing.T) {
	net := birthDeath()
	rec, rep, mem := run(t, net, 99)
	st := rec.Done(rep, recorder.RunInfo{RunID: "r", Seed: 99, RNG: "pcg64"})

	if st.Summary.Status != "completed" || st.Summary.Events != 2000 {
		t.Fatalf("summary %+v", st.Summary)
	}
	if st.Summary.Time != rep.Time {
		t.Fatalf("time %v vs %v", st.Summary.Time, rep.Time)
	}

	fired := st.Reactions[0].Fired + st.Reactions[1].Fired
	if fired != st.Summary.Events {
		t.Fatalf("fired %d != events %d", fired, st.Summary.Events)
	}

	// 直接由軌跡計算時間加權平均、極值
	var area, lo, hi float64 = 0, math.Inf(1), math.Inf(-1)
	for i, s := range mem.Samples {
		x := s.Amounts[0]
		lo, hi = math.Min(lo, x), math.Max(hi, x)
		if i+1 < len(mem.Samples) {
			area += x * (mem.Samples[i+1].Time - s.Time)
		}
	}
	sp := st.Species[0]
	if want := area / rep.Time; math.Abs(sp.Mean-want) > 1e-9 {
		t.Fatalf("mean %v want %v", sp.Mean, want)
	}
	if sp.Min != lo || sp.Max != hi || sp.Initial != 5 || sp.Final != rep.Amounts[0] {
		t.Fatalf("species %+v", sp)
	}
	// 平穩分佈為 Poisson(10)
	if sp.Mean < 7 || sp.Mean > 13 {
		t.Fatalf("mean %v far from 10", sp.Mean)
	}
	if st.Waiting.KS > 2*st.Waiting.Critical || st.Waiting.Samples != 2000 {
		t.Fatalf("waiting %+v", st.Waiting)
	}
}

func TestRecorderReplayIsBitIdentical(t *testing.T) {
	info := recorder.RunInfo{RunID: "r", Seed: 7, RNG: "pcg64"}
	rec, rep, _ := run(t, birthDeath(), 7)
	first := rec.Done(rep, info)
	for range 10 {
		rec, rep, _ := run(t, birthDeath(), 7)
		again := rec.Done(rep, info)
		for i, sp := range first.Species {
			got := again.Species[i]
			if math.Float64bits(sp.Mean) != math.Float64bits(got.Mean) ||
				math.Float64bits(sp.Std) != math.Float64bits(got.Std) {
				t.Fatalf("species %s: mean %v/%v std %v/%v", sp.Name, sp.Mean, got.Mean, sp.Std, got.Std)
			}
			if !slices.Equal(sp.Levels, got.Levels) || !slices.Equal(sp.Durations, got.Durations) {
				t.Fatalf("species %s: occupancy differs", sp.Name)
			}
		}
		if !slices.IsSorted(first.Species[0].Levels) {
			t.Fatalf("levels not sorted: %v", first.Species[0].Levels)
		}
	}
}

func TestRecorderZeroReactions(t *testing.T) {
	net := birthDeath()
	net.Reactions = nil
	rec, rep, _ := run(t, net, 1)
	st := rec.Done(rep, recorder.RunInfo{})
	if st.Summary.Status != "exhausted" || st.Summary.Events != 0 {
		t.Fatalf("summary %+v", st.Summary)
	}
	if st.Species[0].Mean != 5 || st.Species[0].Std != 0 {
		t.Fatalf("species %+v", st.Species[0])
	}
	if len(st.Reactions) != 0 || !st.Waiting.Pass {
		t.Fatalf("unexpected reactions/waiting")
	}
}

func TestRecorderHeaderMismatch(t *testing.T) {
	rec, _ := recorder.New(birthDeath(), 0)
	if err := rec.Header([]string{"X", "Y"}); err == nil {
		t.Fatalf("expected header mismatch error")
	}
}
