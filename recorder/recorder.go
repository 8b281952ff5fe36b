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

// Package recorder 在模擬進行中累積統計，結束時輸出 stats.StatReport。
//
// Recorder 同時是 trajectory.Sink（取得每一列狀態）與 engine.Observer（取得每個事件），
// 以 trajectory.Multi 與真正的輸出端並列即可。
package recorder

import (
	"maps"
	"slices"

	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/stats"
)

// MaxWaitingSamples KS 檢定最多保留的等待時間樣本數
const MaxWaitingSamples = 1 << 16

// RunInfo 報表摘要中引擎無法得知的欄位
type RunInfo struct {
	RunID string
	Seed  int64
	RNG   string
}

// Recorder 模擬紀錄員
type Recorder struct {
	net      *network.Network
	budget   int
	names    []string
	basic    *BasicRecord
	species  []*SpeciesRecord
	fired    []int
	scaled   []float64
	tauSum   float64
	prevTime float64
	prev     []float64
	rows     int
}

// BasicRecord 基本資料紀錄
type BasicRecord struct {
	Events int
	Time   float64
}

// SpeciesRecord 單一物種的極值與佔用表（數量 → 停留時間）
type SpeciesRecord struct {
	Initial   float64
	Min       float64
	Max       float64
	occupancy map[float64]float64
}

// New 建立紀錄員；budget 為本次 run 的迭代預算（<= 0 時使用網路設定）
func New(net *network.Network, budget int) (*Recorder, error) {
	if net == nil {
		return nil, errs.NewFatal("recorder requires a network")
	}
	if budget <= 0 {
		budget = net.Iterations
	}
	r := &Recorder{
		net:    net,
		budget: budget,
		basic:  new(BasicRecord),
		fired:  make([]int, len(net.Reactions)),
	}
	return r, nil
}

// Header 實作 trajectory.Sink
func (r *Recorder) Header(names []string) error {
	if len(names) != len(r.net.Species) {
		return errs.Fatalf("recorder header has %d species, network has %d", len(names), len(r.net.Species))
	}
	r.names = append(r.names[:0], names...)
	r.species = make([]*SpeciesRecord, len(names))
	r.prev = make([]float64, len(names))
	return nil
}

// Row 實作 trajectory.Sink：上一列的數量停留了 t - prevTime
func (r *Recorder) Row(t float64, amounts []float64) error {
	if r.rows == 0 {
		for i, v := range amounts {
			r.species[i] = &SpeciesRecord{Initial: v, Min: v, Max: v, occupancy: map[float64]float64{}}
		}
	} else {
		dt := t - r.prevTime
		for i, sp := range r.species {
			sp.occupancy[r.prev[i]] += dt
			v := amounts[i]
			sp.Min = min(sp.Min, v)
			sp.Max = max(sp.Max, v)
		}
	}
	copy(r.prev, amounts)
	r.prevTime = t
	r.rows++
	return nil
}

// Flush 實作 trajectory.Sink
func (r *Recorder) Flush() error { return nil }

// Observe 實作 engine.Observer
func (r *Recorder) Observe(ev engine.Event) {
	r.fired[ev.Reaction]++
	r.tauSum += ev.Tau
	if len(r.scaled) < MaxWaitingSamples {
		r.scaled = append(r.scaled, ev.A0*ev.Tau)
	}
	r.basic.Events = ev.Step
	r.basic.Time = ev.Time
}

// Done 以引擎回報與 run 資訊組出報表（已呼叫 stats.StatReport.Done）
func (r *Recorder) Done(rep *engine.Report, info RunInfo) *stats.StatReport {
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			RunID:   info.RunID,
			Network: r.net.Name,
			Seed:    info.Seed,
			RNG:     info.RNG,
			Budget:  r.budget,
			Events:  r.basic.Events,
			Time:    r.basic.Time,
			Volume:  r.net.Volume,
		},
		Species:   make([]*stats.SpeciesReport, 0, len(r.species)),
		Reactions: make([]*stats.ReactionReport, len(r.fired)),
		Waiting:   &stats.WaitingReport{Scaled: r.scaled, TauSum: r.tauSum},
	}
	if rep != nil {
		report.Summary.Status = rep.Status.String()
		report.Summary.Detail = rep.Detail
	}

	for i, sp := range r.species {
		if sp == nil {
			continue
		}
		levels := make([]float64, 0, len(sp.occupancy))
		durations := make([]float64, 0, len(sp.occupancy))
		// 依數量排序，讓同一 seed 的加總順序固定
		for _, v := range slices.Sorted(maps.Keys(sp.occupancy)) {
			levels = append(levels, v)
			durations = append(durations, sp.occupancy[v])
		}
		report.Species = append(report.Species, &stats.SpeciesReport{
			Name:      r.names[i],
			Initial:   sp.Initial,
			Final:     r.prev[i],
			Min:       sp.Min,
			Max:       sp.Max,
			Levels:    levels,
			Durations: durations,
		})
	}
	for i, n := range r.fired {
		report.Reactions[i] = &stats.ReactionReport{Index: i, Equation: r.net.Describe(i), Fired: n}
	}
	report.Done()
	return report
}
