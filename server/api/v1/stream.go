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

package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/server/httperr"
	"github.com/zintix-labs/ssalab/server/svrcfg"
)

const (
	streamBatch  = 256
	writeWait    = 10 * time.Second
	maxReadBytes = 512
)

// 串流訊息種類
const (
	MsgHeader = "header"
	MsgRows   = "rows"
	MsgDone   = "done"
	MsgError  = "error"
)

// StreamMsg websocket 上的一則 JSON 訊息。
// Rows 每一列為 [t, x0, x1, ...]，欄位順序同 header 的 Names。
type StreamMsg struct {
	Type   string       `json:"type"`
	Names  []string     `json:"names,omitempty"`
	Rows   [][]float64  `json:"rows,omitempty"`
	Result *SimResponse `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type StreamHandler struct {
	cfg      *svrcfg.SvrCfg
	upgrader websocket.Upgrader
}

func NewStreamHandler(cfg *svrcfg.SvrCfg) (*StreamHandler, error) {
	if cfg == nil || cfg.Lab == nil {
		return nil, errs.NewFatal("server config with lab is required")
	}
	return &StreamHandler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxReadBytes,
			WriteBufferSize: 32 << 10,
		},
	}, nil
}

// Stream GET /v1/stream：參數同 GET /v1/sim。
// 參數錯誤在升級前以一般 HTTP 錯誤回應；升級後依序送出 header、rows…、done（或 error）。
// 客戶端關閉連線即取消模擬。
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, err := fromQuery(r.URL.Query())
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, err := newSimulator(h.cfg, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已經寫回錯誤
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	conn.SetReadLimit(maxReadBytes)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	sink := &wsSink{conn: conn}
	res, err := sim.Run(ctx, sink, false)
	if err != nil {
		if errs.KindOf(err) != errs.KindIO {
			httperr.Log(h.cfg.Log, "stream sim failed", err)
			_ = sink.send(StreamMsg{Type: MsgError, Error: err.Error()})
		} else {
			h.cfg.Log.Debug("stream closed by client", slog.Any("err", err))
		}
		return
	}
	if err := sink.send(StreamMsg{Type: MsgDone, Result: newSimResponse(sim, res, nil)}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// wsSink 把軌跡分批寫成 rows 訊息；只在 handler goroutine 寫入
type wsSink struct {
	conn *websocket.Conn
	rows [][]float64
}

func (s *wsSink) Header(names []string) error {
	return s.send(StreamMsg{Type: MsgHeader, Names: append([]string{"Time"}, names...)})
}

func (s *wsSink) Row(t float64, amounts []float64) error {
	row := make([]float64, 0, len(amounts)+1)
	row = append(row, t)
	s.rows = append(s.rows, append(row, amounts...))
	if len(s.rows) >= streamBatch {
		return s.Flush()
	}
	return nil
}

func (s *wsSink) Flush() error {
	if len(s.rows) == 0 {
		return nil
	}
	err := s.send(StreamMsg{Type: MsgRows, Rows: s.rows})
	s.rows = s.rows[:0]
	return err
}

func (s *wsSink) send(m StreamMsg) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(m); err != nil {
		return errs.WrapKind(err, errs.KindIO, "write websocket message")
	}
	return nil
}
