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

package netsvr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const DefaultAddr string = ":5808"

// 軌跡以串流回傳，單一回應可能持續數分鐘，WriteTimeout 需要寬鬆
const (
	readTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Minute
	idleTimeout  = 120 * time.Second
)

// ChiAdapter 以 chi 實作 NetSvr。
//
// server 的 BaseContext 會在 Shutdown 後取消，讓仍在進行的模擬（以 r.Context() 執行）提早停下。
type ChiAdapter struct {
	router chi.Router
	server *http.Server
	addr   string
	base   context.Context
	cancel context.CancelFunc
}

// NewChiServer addr 為空字串時使用 DefaultAddr
func NewChiServer(addr string) *ChiAdapter {
	if addr == "" {
		addr = DefaultAddr
	}
	cr := chi.NewRouter()
	base, cancel := context.WithCancel(context.Background())
	return &ChiAdapter{
		router: cr,
		server: &http.Server{
			Addr:              addr,
			Handler:           cr,
			ReadHeaderTimeout: readTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			BaseContext:       func(net.Listener) context.Context { return base },
		},
		addr:   addr,
		base:   base,
		cancel: cancel,
	}
}

func NewChiServerDefault() *ChiAdapter {
	return NewChiServer(DefaultAddr)
}

func (c *ChiAdapter) Ready() bool {
	return (c != nil) && (c.router != nil) && (c.server != nil) &&
		strings.Contains(c.addr, ":") && (c.server.Handler == c.router)
}

// Run 阻塞直到 Shutdown；正常關閉時回傳 nil
func (c *ChiAdapter) Run() error {
	err := c.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 先停止接收新連線，再取消仍在進行的請求
func (c *ChiAdapter) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		defer c.cancel()
	}
	return c.server.Shutdown(ctx)
}

func (c *ChiAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.router.ServeHTTP(w, r)
}

func (c *ChiAdapter) Use(mw func(http.Handler) http.Handler) {
	c.router.Use(mw)
}

func (c *ChiAdapter) Get(path string, h http.HandlerFunc) {
	c.router.Get(path, h)
}

func (c *ChiAdapter) Post(path string, h http.HandlerFunc) {
	c.router.Post(path, h)
}

func (c *ChiAdapter) Put(path string, h http.HandlerFunc) {
	c.router.Put(path, h)
}

func (c *ChiAdapter) Delete(path string, h http.HandlerFunc) {
	c.router.Delete(path, h)
}

func (c *ChiAdapter) Group(path string, fn func(subRouter NetRouter)) {
	c.router.Route(path, func(r chi.Router) {
		fn(&ChiAdapter{router: r})
	})
}

func (c *ChiAdapter) Address() string {
	return c.addr
}
