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

// Package errs 定義 ssalab 全域共用的錯誤型別。
//
// 錯誤有兩個維度：
//   - ErrLevel：嚴重度（Fatal / Warn / Log），讓最上層（CLI、HTTP）決定怎麼回應。
//   - Kind：來源分類（設定、數值、抽樣、I/O），讓呼叫端區分「輸入有問題」與「模擬本身出錯」。
package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// Kind 錯誤來源分類
type Kind uint8

const (
	KindUnknown  Kind = iota
	KindConfig        // 網路設定檔 / 參數錯誤，模擬開始前即可發現
	KindNumeric       // 數值發散（propensity 非有限值等）
	KindSampling      // 反 CDF 抽樣找不到索引，屬於內部一致性錯誤
	KindIO            // 軌跡輸出失敗
	KindInternal
)

var kindMap = map[Kind]string{
	KindUnknown:  "",
	KindConfig:   "config",
	KindNumeric:  "numeric",
	KindSampling: "sampling",
	KindIO:       "io",
	KindInternal: "internal",
}

func (k Kind) String() string {
	return kindMap[k]
}

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 為嚴重度；Kind 為來源分類。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s", ErrLv(e.ErrLv))
	if e.Kind != KindUnknown {
		base += " kind=" + e.Kind.String()
	}
	base += " " + e.Message
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// WithKind 設定分類後回傳自身，方便宣告 sentinel。
func (e *E) WithKind(k Kind) *E {
	e.Kind = k
	return e
}

// New 依錯誤等級與訊息建立錯誤
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

// Config 建立設定錯誤（Warn + KindConfig）：使用者輸入有誤，不是系統故障。
func Config(msg string) *E {
	return &E{Message: msg, ErrLv: Warn, Kind: KindConfig}
}

func Configf(format string, a ...any) *E {
	return Config(fmt.Sprintf(format, a...))
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 以訊息包裝底層錯誤。
//
// 規則：
//   - 若 cause 已經是 *E，沿用其 ErrLv 與 Kind（保持原本嚴重度與分類）。
//   - 否則（標準庫或三方依賴錯誤）ErrLv 視為 Fatal、Kind 為 KindUnknown。
func Wrap(cause error, msg string) *E {
	errLv, kind := Fatal, KindUnknown
	if e, ok := AsErr(cause); ok {
		errLv, kind = e.ErrLv, e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapKind 與 Wrap 相同，但強制指定分類（例如把 os 錯誤標記為 KindIO）。
func WrapKind(cause error, kind Kind, msg string) *E {
	r := Wrap(cause, msg)
	r.Kind = kind
	return r
}

// WrapWithExtra 與 Wrap 相同，並附加上下文。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}

// KindOf 回傳錯誤鏈上第一個帶分類的 *E 的 Kind。
func KindOf(err error) Kind {
	for err != nil {
		var e *E
		if !errors.As(err, &e) {
			return KindUnknown
		}
		if e.Kind != KindUnknown {
			return e.Kind
		}
		err = e.Cause
	}
	return KindUnknown
}
