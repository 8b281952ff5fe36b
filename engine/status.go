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
	"context"
	"fmt"

	"github.com/zintix-labs/ssalab/errs"
)

// Status 引擎狀態。StatusRunning 以外皆為終止狀態。
type Status uint8

const (
	StatusRunning Status = iota
	// StatusCompleted 用完迭代預算
	StatusCompleted
	// StatusExhausted a0 == 0，沒有反應能再發生
	StatusExhausted
	// StatusDiverged propensity 或 a0 非有限值（或為負）
	StatusDiverged
	// StatusInvalidState 更新後出現負數量
	StatusInvalidState
	// StatusCanceled context 在兩步之間被取消
	StatusCanceled
	// StatusSelectionMiss 反 CDF 抽樣找不到索引
	StatusSelectionMiss
	// StatusFailed 軌跡輸出失敗
	StatusFailed
)

var statusName = [...]string{
	StatusRunning:       "running",
	StatusCompleted:     "completed",
	StatusExhausted:     "exhausted",
	StatusDiverged:      "diverged",
	StatusInvalidState:  "invalid_state",
	StatusCanceled:      "canceled",
	StatusSelectionMiss: "selection_miss",
	StatusFailed:        "failed",
}

func (s Status) String() string {
	if int(s) < len(statusName) {
		return statusName[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText 讓 JSON / YAML 報表輸出狀態名稱
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal 是否為終止狀態
func (s Status) Terminal() bool { return s != StatusRunning }

// OK 正常結束（用完預算或反應耗盡）
func (s Status) OK() bool { return s == StatusCompleted || s == StatusExhausted }

var (
	// ErrDiverged 數值發散或出現負數量；部分軌跡仍然有效
	ErrDiverged = errs.NewWarn("simulation diverged").WithKind(errs.KindNumeric)
	// ErrSelectionMiss 抽樣失敗，屬於內部一致性錯誤
	ErrSelectionMiss = errs.NewFatal("reaction selection missed").WithKind(errs.KindSampling)
	// ErrAlreadyRun 同一個 Engine 只能 Run 一次
	ErrAlreadyRun = errs.NewFatal("engine already run").WithKind(errs.KindInternal)
)

// Report 一次 Run 的結果
type Report struct {
	Status  Status    `json:"status"  yaml:"status"`
	Steps   int       `json:"steps"   yaml:"steps"`
	Time    float64   `json:"time"    yaml:"time"`
	Amounts []float64 `json:"amounts" yaml:"amounts"`
	Detail  string    `json:"detail,omitempty" yaml:"detail,omitempty"`

	err error
}

// Err 把終止狀態轉成錯誤值；正常結束回傳 nil。
func (r *Report) Err() error {
	switch r.Status {
	case StatusCompleted, StatusExhausted, StatusRunning:
		return nil
	case StatusDiverged, StatusInvalidState:
		return errs.WrapWithExtra(ErrDiverged, r.Status.String(), r.Detail)
	case StatusCanceled:
		if r.err != nil {
			return r.err
		}
		return errs.Wrap(context.Canceled, "simulation canceled")
	default:
		if r.err != nil {
			return r.err
		}
		return errs.Fatalf("simulation ended with status %s", r.Status)
	}
}
