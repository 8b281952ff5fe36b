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

// Package server 組裝並啟動 ssalab 的 HTTP 服務。
//
// 依賴一律透過 svrcfg.SvrCfg 注入，不讀檔案路徑或環境變數；
// 要把 API 掛到既有服務，直接呼叫 api.RegisterRoutes 即可。
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/server/api"
	"github.com/zintix-labs/ssalab/server/app"
	"github.com/zintix-labs/ssalab/server/netsvr"
	"github.com/zintix-labs/ssalab/server/svrcfg"
)

// Run 以預設的 chi server 監聽 sCfg.Addr，阻塞直到 ctx 取消、收到 SIGINT/SIGTERM 或 server 失敗。
func Run(ctx context.Context, sCfg *svrcfg.SvrCfg) error {
	if err := sCfg.Vaild(); err != nil {
		// logger 可能尚未可用
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return RunWithSvr(ctx, sCfg, netsvr.NewChiServer(sCfg.Addr))
}

// RunWithSvr 與 Run 相同，但使用呼叫端提供的 NetSvr（自訂 listener、timeout 等）
func RunWithSvr(ctx context.Context, sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) error {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	if svr == nil {
		return errs.NewFatal("svr is required")
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		return errs.NewFatal("default server is not ready")
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return err
	}

	a := app.NewWith(svr)
	a.SetLogger(sCfg.Log)
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[ssalab] listening", slog.String("addr", s.Address()))
	}
	if err := a.Run(ctx); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
		return err
	}
	return nil
}
