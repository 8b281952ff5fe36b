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

// Package httperr 把 ssalab 的錯誤映射成 HTTP 回應。
// 屬於傳輸邊界層，核心套件不依賴 net/http。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/ssalab/catalog"
	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/errs"
)

// StatusCode 錯誤 → HTTP status：
//   - ctx timeout/cancel      → 504/408
//   - 找不到網路              → 404
//   - 數值發散 / 負數量       → 422
//   - 設定錯誤或其他 errs.Warn → 400
//   - 其他                    → 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrDiverged):
		return http.StatusUnprocessableEntity
	}
	if errs.KindOf(err) == errs.KindConfig {
		return http.StatusBadRequest
	}
	if e, ok := errs.AsErr(err); ok && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Body 錯誤回應的 JSON 結構
type Body struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Errs 以 JSON 寫回錯誤；err 為 nil 時不做任何事
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(StatusCode(err))
	_ = json.NewEncoder(w).Encode(Body{Error: err.Error(), Kind: errs.KindOf(err).String()})
}

// Log 只記錄伺服器端需要注意的錯誤（408 / 5xx）；4xx 的輸入錯誤已由 access log 反映
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	}
}
