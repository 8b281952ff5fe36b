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

// Package app 管理長期運行元件（HTTP server 等）的啟動與優雅關閉。
package app

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"
)

// DefaultGrace 收到停止訊號後，等待各元件關閉的上限
const DefaultGrace = 10 * time.Second

// App 啟動所有註冊的 Component；收到 SIGINT/SIGTERM、ctx 取消或任一元件返回時，依序呼叫 Shutdown。
type App struct {
	comps []Component
	grace time.Duration
	log   *slog.Logger
}

func New() *App { return &App{grace: DefaultGrace, log: slog.New(slog.DiscardHandler)} }

func NewWith(comps ...Component) *App {
	a := New()
	for _, c := range comps {
		a.Register(c)
	}
	return a
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// SetLogger nil 時忽略
func (a *App) SetLogger(l *slog.Logger) {
	if l != nil {
		a.log = l
	}
}

// SetGrace d <= 0 時忽略
func (a *App) SetGrace(d time.Duration) {
	if d > 0 {
		a.grace = d
	}
}

// Run 阻塞直到停止：
//   - 訊號或 ctx 取消：優雅關閉並回傳 nil。
//   - 任一元件 Run 返回：優雅關閉並回傳該錯誤（可能為 nil）。
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested", slog.Any("cause", context.Cause(ctx)))
		a.gracefulShutdown()
		return nil
	case err := <-errCh:
		if err != nil {
			a.log.Error("component stopped", slog.Any("err", err))
		}
		a.gracefulShutdown()
		return err
	}
}

func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Warn("shutdown", slog.Any("err", err))
		}
	}
}
