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
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/server/httperr"
	"github.com/zintix-labs/ssalab/server/svrcfg"
	"github.com/zintix-labs/ssalab/stats"
	"github.com/zintix-labs/ssalab/trajectory"
)

// 回應 header；TSV 串流時 status 等結果只能放在 trailer
const (
	HeaderSeed    = "X-Ssalab-Seed"
	HeaderRunID   = "X-Ssalab-Run-Id"
	HeaderStatus  = "X-Ssalab-Status"
	HeaderEvents  = "X-Ssalab-Events"
	HeaderNetwork = "X-Ssalab-Network"
)

// 每累積這麼多列就把緩衝推給客戶端
const flushEvery = 1024

type SimHandler struct {
	cfg *svrcfg.SvrCfg
}

// SimResponse format=json 的回應
type SimResponse struct {
	RunID      string             `json:"run_id"`
	Network    string             `json:"network"`
	Seed       int64              `json:"seed"`
	Elapsed    string             `json:"elapsed"`
	Report     *engine.Report     `json:"report"`
	Stats      *stats.StatReport  `json:"stats"`
	Trajectory *trajectory.Memory `json:"trajectory,omitempty"`
}

func NewSimHandler(cfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if cfg == nil || cfg.Lab == nil {
		return nil, errs.NewFatal("server config with lab is required")
	}
	return &SimHandler{cfg: cfg}, nil
}

// Sim GET /v1/sim（query）與 POST /v1/sim（JSON body）
func (h *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r, h.cfg.MaxBodyBytes)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, err := newSimulator(h.cfg, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Format == FormatJSON {
		h.runJSON(w, r, sim, req)
		return
	}
	h.runTSV(w, r, sim, req)
}

func (h *SimHandler) runJSON(w http.ResponseWriter, r *http.Request, sim *ssalab.Simulator, req *SimRequest) {
	var mem *trajectory.Memory
	var sink trajectory.Sink
	if req.Trajectory {
		mem = &trajectory.Memory{}
		sink = mem
	}
	res, err := sim.Run(r.Context(), sink, false)
	if err != nil {
		httperr.Log(h.cfg.Log, "sim failed", err)
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSimResponse(sim, res, mem))
}

func (h *SimHandler) runTSV(w http.ResponseWriter, r *http.Request, sim *ssalab.Simulator, req *SimRequest) {
	hd := w.Header()
	hd.Set("Content-Type", "text/tab-separated-values; charset=utf-8")
	hd.Set(HeaderSeed, strconv.FormatInt(sim.Seed(), 10))
	hd.Set(HeaderNetwork, sim.Network.Name)
	hd.Set("Trailer", HeaderRunID+", "+HeaderStatus+", "+HeaderEvents)

	sink := newFlushSink(w, *req.Precision)
	res, err := sim.Run(r.Context(), sink, false)
	if res != nil {
		hd.Set(HeaderRunID, res.RunID)
		if res.Report != nil {
			hd.Set(HeaderStatus, res.Report.Status.String())
			hd.Set(HeaderEvents, strconv.Itoa(res.Report.Steps))
		}
	}
	if err != nil {
		// 軌跡已經開始輸出，status code 無法更改；錯誤只記在 log 與 trailer
		if errs.KindOf(err) == errs.KindIO {
			h.cfg.Log.Warn("client stream broken", slog.Any("err", err))
			return
		}
		httperr.Log(h.cfg.Log, "sim failed", err)
	}
}

func newSimResponse(sim *ssalab.Simulator, res *ssalab.Result, mem *trajectory.Memory) *SimResponse {
	return &SimResponse{
		RunID:      res.RunID,
		Network:    sim.Network.Name,
		Seed:       res.Seed,
		Elapsed:    res.Used.Round(time.Microsecond).String(),
		Report:     res.Report,
		Stats:      res.Stats,
		Trajectory: mem,
	}
}

// flushSink TSV 加上定期把資料推到客戶端
type flushSink struct {
	*trajectory.TSV
	rc   *http.ResponseController
	rows int
}

func newFlushSink(w http.ResponseWriter, prec int) *flushSink {
	return &flushSink{TSV: trajectory.NewTSV(w, prec), rc: http.NewResponseController(w)}
}

func (s *flushSink) Row(t float64, amounts []float64) error {
	if err := s.TSV.Row(t, amounts); err != nil {
		return err
	}
	s.rows++
	if s.rows%flushEvery == 0 {
		return s.Flush()
	}
	return nil
}

func (s *flushSink) Flush() error {
	if err := s.TSV.Flush(); err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return errs.WrapKind(err, errs.KindIO, "flush response")
	}
	return nil
}
