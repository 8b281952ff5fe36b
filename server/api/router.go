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

// Package api 註冊 ssalab HTTP 服務的 middleware 與路由。
package api

import (
	"log/slog"
	"net/http"

	v1 "github.com/zintix-labs/ssalab/server/api/v1"
	"github.com/zintix-labs/ssalab/server/netsvr"
	"github.com/zintix-labs/ssalab/server/netsvr/middleware"
	"github.com/zintix-labs/ssalab/server/svrcfg"
)

// Routes 首頁列出的端點
var Routes = []string{
	"GET  /healthz",
	"GET  /v1/networks",
	"GET  /v1/networks/{name}",
	"GET  /v1/sim?name=&seed=&iterations=&format=tsv|json",
	"POST /v1/sim",
	"GET  /v1/stream?name=&seed=&iterations= (websocket)",
}

// RegisterRoutes 依序註冊 middleware、首頁、v1 api
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log)
	registerIndex(svr)
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.Compression)
}

func registerIndex(svr netsvr.NetRouter) {
	svr.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ssalab: stochastic simulation service\n\n"))
		for _, rt := range Routes {
			_, _ = w.Write([]byte("  " + rt + "\n"))
		}
	})
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	n, err := v1.NewNetworksHandler(sCfg.Lab)
	if err != nil {
		return err
	}
	s, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	st, err := v1.NewStreamHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/networks", n.List)
		vOne.Get("/networks/{name}", n.Get)

		vOne.Get("/sim", s.Sim)
		vOne.Post("/sim", s.Sim)

		vOne.Get("/stream", st.Stream)
	})
	return nil
}
