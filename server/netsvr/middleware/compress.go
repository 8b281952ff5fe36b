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

package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// encoder gzip.Writer 與 zstd.Encoder 共同的行為
type encoder interface {
	io.Writer
	Flush() error
	Close() error
	Reset(w io.Writer)
}

type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.BestSpeed,
	ZstdLevel: zstd.SpeedFastest,
}

var encoderPools = map[string]*sync.Pool{
	"zstd": {New: func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(DefaultCompressConfig.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}},
	"gzip": {New: func() any {
		gw, err := gzip.NewWriterLevel(nil, DefaultCompressConfig.GzipLevel)
		if err != nil {
			panic(err)
		}
		return gw
	}},
}

// 依偏好順序
var encodings = []string{"zstd", "gzip"}

// negotiate 從 Accept-Encoding 挑出第一個支援且 q > 0 的編碼
func negotiate(header string) string {
	accepted := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		q := 1.0
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				q = f
			}
		}
		accepted[name] = q > 0
	}
	for _, enc := range encodings {
		if accepted[enc] {
			return enc
		}
	}
	return ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// 1xx / 204 / 304 不帶 body
func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

type compressResponseWriter struct {
	http.ResponseWriter
	enc      encoder
	disabled bool
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.enc.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

// Flush 串流軌跡時每批 row 都會呼叫，必須先把壓縮器內的資料推出去
func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

func (cw *compressResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// Compression 依 Accept-Encoding 以 zstd 或 gzip 壓縮回應；HEAD 與 websocket 不處理
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || isWebSocketUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}
		name := negotiate(r.Header.Get("Accept-Encoding"))
		if name == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", name)
		w.Header().Add("Vary", "Accept-Encoding")

		pool := encoderPools[name]
		enc := pool.Get().(encoder)
		enc.Reset(w)
		cw := &compressResponseWriter{ResponseWriter: w, enc: enc}
		defer func() {
			// 無 body 的回應不能寫入壓縮 footer
			if cw.disabled {
				enc.Reset(io.Discard)
			}
			_ = enc.Close()
			enc.Reset(nil)
			pool.Put(enc)
		}()
		next.ServeHTTP(cw, r)
	})
}
