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

// Package engine 實作 Gillespie direct method（精確隨機模擬演算法）。
//
// 每一步：
//  1. 以目前數量重算所有 propensity 與 a0
//  2. a0 == 0 結束（Exhausted）
//  3. 以反 CDF 抽出反應 μ
//  4. 套用 μ 的化學計量變化
//  5. 時間前進 τ = (1/a0)·ln(1/r')
//  6. 輸出事件後的狀態
//
// 開始前輸出一列初始狀態，因此用完 N 次預算會輸出 N+1 列。
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/propensity"
	"github.com/zintix-labs/ssalab/trajectory"
)

// RandomSource 引擎唯一需要的亂數介面：開區間 (0,1) 的均勻分佈。
// 整個 run 只使用同一個來源，不會在中途重新設定種子。
type RandomSource interface {
	OpenFloat64() float64
}

// Event 一次已套用的反應事件
type Event struct {
	Step     int     // 1-based
	Reaction int     // 反應索引 μ
	A0       float64 // 抽樣當下的 a0
	Tau      float64 // 等待時間
	Time     float64 // 事件後的模擬時間
}

// Observer 在每個事件套用並輸出後被呼叫
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc 函式轉 Observer
type ObserverFunc func(ev Event)

func (f ObserverFunc) Observe(ev Event) { f(ev) }

// Option 引擎選項
type Option func(*Engine)

// WithLogger 設定 logger；nil 代表不輸出
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithNegativeGuard 開關負數量檢查（預設開啟）
func WithNegativeGuard(on bool) Option {
	return func(e *Engine) { e.guard = on }
}

// WithObserver 加入事件觀察者
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithBudget 覆寫網路設定的迭代預算（n <= 0 時忽略）
func WithBudget(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.budget = n
		}
	}
}

// Engine 單一模擬實例。不可併發使用；每個 run 建立一個新的 Engine。
type Engine struct {
	names     []string
	stoich    [][]int
	laws      []propensity.Law
	state     State
	table     *Table
	rng       RandomSource
	sink      trajectory.Sink
	budget    int
	steps     int
	guard     bool
	observers []Observer
	log       *slog.Logger

	started bool
	status  Status
	detail  string
	err     error
}

// New 檢查網路、綁定速率律並建立引擎。
// net 只會被讀取，可由多個引擎共用；sink 為 nil 時丟棄軌跡。
func New(net *network.Network, rng RandomSource, sink trajectory.Sink, opts ...Option) (*Engine, error) {
	if net == nil {
		return nil, errs.Config("network is required")
	}
	if rng == nil {
		return nil, errs.Config("random source is required")
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	laws, err := propensity.Bind(net)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = trajectory.Discard{}
	}
	e := &Engine{
		names:  net.Names(),
		stoich: make([][]int, len(net.Reactions)),
		laws:   laws,
		state:  NewState(net.Amounts()),
		table:  NewTable(len(net.Reactions)),
		rng:    rng,
		sink:   sink,
		budget: net.Iterations,
		guard:  true,
		log:    slog.New(slog.DiscardHandler),
	}
	for i, r := range net.Reactions {
		e.stoich[i] = slices.Clone(r.Stoich)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State 目前狀態（唯讀使用）
func (e *Engine) State() *State { return &e.state }

// Table 最近一次計算的 propensity 表（唯讀使用）
func (e *Engine) Table() *Table { return e.table }

// Steps 已套用的事件數
func (e *Engine) Steps() int { return e.steps }

// Status 目前狀態
func (e *Engine) Status() Status { return e.status }

// Step 執行一步。回傳 StatusRunning 代表可以繼續；終止後重複呼叫會回傳同一個狀態。
// 只有抽樣失敗與軌跡輸出失敗會回傳 error。
func (e *Engine) Step() (Status, error) {
	if e.status.Terminal() {
		return e.status, e.err
	}
	if e.steps >= e.budget {
		return e.finish(StatusCompleted, "", nil)
	}

	if bad := e.table.Refresh(e.laws, e.state.Amounts); bad >= 0 {
		return e.finish(StatusDiverged, fmt.Sprintf("propensity of reaction %d is not a finite non-negative number", bad), nil)
	}
	a0 := e.table.A0
	if a0 == 0 {
		return e.finish(StatusExhausted, "", nil)
	}
	if math.IsNaN(a0) || math.IsInf(a0, 0) {
		return e.finish(StatusDiverged, fmt.Sprintf("total propensity is %v", a0), nil)
	}

	r := e.rng.OpenFloat64()
	mu, ok := e.table.Select(r)
	if !ok {
		detail := fmt.Sprintf("r=%v cumulative=%v", r, e.table.Cumul[len(e.table.Cumul)-1])
		return e.finish(StatusSelectionMiss, detail, errs.WrapWithExtra(ErrSelectionMiss, "select reaction", detail))
	}

	e.state.Apply(e.stoich[mu])
	tau := WaitingTime(a0, e.rng.OpenFloat64())

	if e.guard {
		if i := e.state.Negative(); i >= 0 {
			return e.finish(StatusInvalidState, fmt.Sprintf("species %s became %v after reaction %d", e.names[i], e.state.Amounts[i], mu), nil)
		}
	}

	e.state.Time += tau
	e.steps++
	if err := e.sink.Row(e.state.Time, e.state.Amounts); err != nil {
		return e.finish(StatusFailed, "write row", err)
	}
	ev := Event{Step: e.steps, Reaction: mu, A0: a0, Tau: tau, Time: e.state.Time}
	for _, o := range e.observers {
		o.Observe(ev)
	}
	return StatusRunning, nil
}

// Run 輸出表頭與初始狀態後持續執行直到終止。
//
// 數值發散不是 error：看 Report.Status（或 Report.Err）。
// 回傳 error 的情況：抽樣失敗、軌跡輸出失敗、context 取消。
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if e.started {
		return nil, ErrAlreadyRun
	}
	e.started = true

	if err := e.sink.Header(e.names); err != nil {
		e.finish(StatusFailed, "write header", err)
		return e.report(), e.err
	}
	if err := e.sink.Row(e.state.Time, e.state.Amounts); err != nil {
		e.finish(StatusFailed, "write initial row", err)
		return e.report(), e.err
	}

	for {
		if e.steps < e.budget {
			if err := ctx.Err(); err != nil {
				e.finish(StatusCanceled, "", errs.Wrap(err, "simulation canceled"))
				break
			}
		}
		st, _ := e.Step()
		if st.Terminal() {
			break
		}
	}

	if err := e.sink.Flush(); err != nil && e.err == nil {
		e.err = errs.WrapKind(err, errs.KindIO, "flush trajectory")
		if e.status.OK() {
			e.status = StatusFailed
		}
	}

	e.log.Debug("engine finished",
		slog.String("status", e.status.String()),
		slog.Int("steps", e.steps),
		slog.Float64("time", e.state.Time),
		slog.String("detail", e.detail),
	)
	return e.report(), e.err
}

func (e *Engine) finish(st Status, detail string, err error) (Status, error) {
	e.status = st
	e.detail = detail
	if err != nil {
		if _, ok := errs.AsErr(err); ok {
			e.err = err
		} else {
			e.err = errs.WrapKind(err, errs.KindIO, detail)
		}
	}
	return st, e.err
}

func (e *Engine) report() *Report {
	return &Report{
		Status:  e.status,
		Steps:   e.steps,
		Time:    e.state.Time,
		Amounts: slices.Clone(e.state.Amounts),
		Detail:  e.detail,
		err:     e.err,
	}
}
