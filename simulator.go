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

package ssalab

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/recorder"
	"github.com/zintix-labs/ssalab/sdk/core"
	"github.com/zintix-labs/ssalab/stats"
	"github.com/zintix-labs/ssalab/trajectory"
)

// Simulator 對同一個網路重複執行模擬。
//
// 第一次 Run 使用初始 seed；之後每次 Run 由 seedMaker 推導新的 seed，
// 所以同一個初始 seed 的整串 run 都可以重現。不可併發使用。
type Simulator struct {
	Network   *network.Network // 唯讀
	cf        core.PRNGFactory
	initSeed  int64
	seedmaker *seedMaker
	runs      int
	budget    int
	guard     bool
	log       *slog.Logger
	progress  io.Writer
}

// Result 一次 Run 的結果
type Result struct {
	RunID  string
	Seed   int64
	Report *engine.Report
	Stats  *stats.StatReport
	Used   time.Duration
}

func newSimulatorWithSeed(net *network.Network, cf core.PRNGFactory, seed int64, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Simulator{
		Network:   net,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		budget:    net.Iterations,
		guard:     true,
		log:       log,
	}
}

// Seed 初始 seed
func (s *Simulator) Seed() int64 { return s.initSeed }

// SetBudget 覆寫迭代預算（n <= 0 時恢復網路設定）
func (s *Simulator) SetBudget(n int) {
	if n <= 0 {
		n = s.Network.Iterations
	}
	s.budget = n
}

// Budget 目前的迭代預算
func (s *Simulator) Budget() int { return s.budget }

// SetNegativeGuard 開關負數量檢查（預設開啟）
func (s *Simulator) SetNegativeGuard(on bool) { s.guard = on }

// SetProgressWriter 進度條輸出位置（預設 stderr）
func (s *Simulator) SetProgressWriter(w io.Writer) { s.progress = w }

// Run 執行一次模擬：軌跡寫到 sink（可為 nil），統計由內部 recorder 收集。
//
// 回傳的 error 只代表 run 本身失敗（抽樣失敗、輸出失敗、取消）；
// 數值發散等終止狀態請看 Result.Report.Status。Result 在有 error 時仍會回傳部分結果。
func (s *Simulator) Run(ctx context.Context, sink trajectory.Sink, showpb bool) (*Result, error) {
	seed := s.nextSeed()
	runID := newRunID()
	log := s.log.With(slog.String("run_id", runID))

	rec, err := recorder.New(s.Network, s.budget)
	if err != nil {
		return nil, err
	}
	out := trajectory.Sink(rec)
	if sink != nil {
		out = trajectory.Multi(sink, rec)
	}

	bar := pb.New(s.budget)
	if !showpb {
		bar.SetWriter(io.Discard)
	} else if s.progress != nil {
		bar.SetWriter(s.progress)
	}
	var done atomic.Int64
	tick := engine.ObserverFunc(func(engine.Event) {
		done.Add(1)
		bar.Increment()
	})

	e, err := engine.New(s.Network, core.New(s.cf.New(seed)), out,
		engine.WithBudget(s.budget),
		engine.WithNegativeGuard(s.guard),
		engine.WithObserver(rec),
		engine.WithObserver(tick),
		engine.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	log.Info("simulation started",
		slog.String("network", s.Network.Name),
		slog.Int64("seed", seed),
		slog.String("rng", core.NameOf(s.cf)),
		slog.Int("budget", s.budget),
	)
	bar.Start()
	rep, runErr := e.Run(ctx)
	used := time.Since(bar.StartTime())
	bar.Finish()

	res := &Result{RunID: runID, Seed: seed, Report: rep, Used: used}
	if rep != nil {
		res.Stats = rec.Done(rep, recorder.RunInfo{RunID: runID, Seed: seed, RNG: core.NameOf(s.cf)})
	}

	attrs := []any{
		slog.Int64("events", done.Load()),
		slog.Duration("used", used),
	}
	if rep != nil {
		attrs = append(attrs, slog.String("status", rep.Status.String()), slog.Float64("time", rep.Time))
		if rep.Detail != "" {
			attrs = append(attrs, slog.String("detail", rep.Detail))
		}
	}
	switch {
	case runErr != nil:
		log.Error("simulation failed", append(attrs, slog.Any("err", runErr))...)
	case rep.Status.OK():
		log.Info("simulation finished", attrs...)
	default:
		log.Warn("simulation terminated", attrs...)
	}
	return res, runErr
}

func (s *Simulator) nextSeed() int64 {
	s.runs++
	if s.runs == 1 {
		return s.initSeed
	}
	return s.seedmaker.next()
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

const mask63 = (uint64(1) << 63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG（mod 2^63）推進 state，再用可逆 mix63 打散；回傳值一定非負
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
