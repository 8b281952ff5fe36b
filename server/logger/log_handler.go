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

// Package logger 組裝 ssalab 使用的 slog.Logger。
//
// 所有模式預設寫到 stderr：stdout 保留給軌跡輸出（TSV），兩者不可混在一起。
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/ssalab/errs"
)

// enum LogMode
type LogMode uint8

const (
	ModeDev     LogMode = iota // text, debug
	ModeProd                   // JSON, info
	ModeSilence                // 全部丟棄
)

var modeName = map[string]LogMode{
	"dev":     ModeDev,
	"prod":    ModeProd,
	"json":    ModeProd,
	"silence": ModeSilence,
	"silent":  ModeSilence,
	"off":     ModeSilence,
}

// ParseMode 解析 CLI / 設定檔的模式名稱（大小寫不敏感）
func ParseMode(s string) (LogMode, error) {
	if m, ok := modeName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return ModeDev, errs.Configf("unknown log mode %q (dev, prod, silence)", s)
}

// NewDefaultLogger 以 LogMode 預設值建立寫到 stderr 的 logger
func NewDefaultLogger(mode LogMode) *slog.Logger {
	return slog.New(buildHandler(os.Stderr, mode))
}

// NewLoggerTo 與 NewDefaultLogger 相同，但寫到 w（測試或自訂輸出使用）
func NewLoggerTo(w io.Writer, mode LogMode) *slog.Logger {
	return slog.New(buildHandler(w, mode))
}

// NewDefaultAsyncLogger 非同步版本，給 HTTP server 使用
func NewDefaultAsyncLogger(mode LogMode) *slog.Logger {
	return slog.New(NewAsyncHandler(buildHandler(os.Stderr, mode), 8192))
}

// NewLogger 以呼叫端組裝的 Handler 建立 logger；nil 時使用 ModeDev
func NewLogger(h slog.Handler) *slog.Logger {
	if h == nil {
		h = buildHandler(os.Stderr, ModeDev)
	}
	return slog.New(h)
}

// AsyncHandler 把任何 slog.Handler 變成非阻塞：Handle 只做 enqueue，
// 背景 goroutine 逐筆寫出；佇列滿時丟棄並計數，不把 I/O 延遲帶回請求路徑。
type AsyncHandler struct {
	next slog.Handler
	d    *asyncDispatcher
}

type asyncDispatcher struct {
	ch        chan asyncItem
	closed    chan struct{}
	once      sync.Once
	wg        sync.WaitGroup
	dropCount atomic.Uint64
}

type asyncItem struct {
	ctx     context.Context
	rec     slog.Record
	handler slog.Handler
}

// NewAsyncHandler buf <= 0 時使用 1024
func NewAsyncHandler(next slog.Handler, buf int) *AsyncHandler {
	if next == nil {
		next = buildHandler(os.Stderr, ModeDev)
	}
	if buf <= 0 {
		buf = 1024
	}
	d := &asyncDispatcher{
		ch:     make(chan asyncItem, buf),
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.worker()
	return &AsyncHandler{next: next, d: d}
}

func (h *AsyncHandler) Ready() bool {
	return h != nil && h.d != nil
}

// Dropped 因佇列已滿（或已關閉）而丟棄的筆數
func (h *AsyncHandler) Dropped() uint64 {
	if !h.Ready() {
		return 0
	}
	return h.d.dropCount.Load()
}

// Close 停止接收並把佇列中剩餘的紀錄寫完
func (h *AsyncHandler) Close() {
	if !h.Ready() {
		return
	}
	h.d.once.Do(func() { close(h.d.closed) })
	h.d.wg.Wait()
}

func (d *asyncDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case it := <-d.ch:
			it.write()
		case <-d.closed:
			for {
				select {
				case it := <-d.ch:
					it.write()
				default:
					return
				}
			}
		}
	}
}

func (it asyncItem) write() {
	if it.handler != nil {
		_ = it.handler.Handle(it.ctx, it.rec)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.Ready() {
		return nil
	}
	select {
	case <-h.d.closed:
		h.d.dropCount.Add(1)
		return nil
	default:
	}
	it := asyncItem{ctx: context.WithoutCancel(ctx), rec: r.Clone(), handler: h.next}
	select {
	case h.d.ch <- it:
	default:
		h.d.dropCount.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{next: h.next.WithAttrs(attrs), d: h.d}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{next: h.next.WithGroup(name), d: h.d}
}

// NewAsync 以 LogMode 預設值建立非同步 logger，並回傳 handler 供關閉時 drain
func NewAsync(buf int, mode LogMode) (*slog.Logger, *AsyncHandler) {
	ah := NewAsyncHandler(buildHandler(os.Stderr, mode), buf)
	return slog.New(ah), ah
}

func buildHandler(w io.Writer, mode LogMode) slog.Handler {
	switch mode {
	case ModeProd:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeSilence:
		return slog.DiscardHandler
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}
