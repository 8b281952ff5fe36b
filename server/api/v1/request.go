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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
	"github.com/zintix-labs/ssalab/sdk/core"
	"github.com/zintix-labs/ssalab/server/svrcfg"
	"github.com/zintix-labs/ssalab/trajectory"
)

const (
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// SimRequest 模擬請求；GET 由 query string 組出，POST 為 JSON body。
//
// Name 與 Network 擇一：Name 取目錄中的網路，Network 為內嵌的網路描述。
// Seed 省略時由伺服器產生，實際使用的 seed 會寫在回應中。
type SimRequest struct {
	Name       string           `json:"name,omitempty"`
	Network    *network.Network `json:"network,omitempty"`
	Seed       *int64           `json:"seed,omitempty"`
	Iterations int              `json:"iterations,omitempty"`
	Format     string           `json:"format,omitempty"`
	Precision  *int             `json:"precision,omitempty"`
	Guard      *bool            `json:"guard,omitempty"`
	Trajectory bool             `json:"trajectory,omitempty"`
}

// decodeRequest GET 讀 query，其他方法讀 JSON body（大小受 MaxBodyBytes 限制）
func decodeRequest(w http.ResponseWriter, r *http.Request, maxBody int64) (*SimRequest, error) {
	if r.Method == http.MethodGet {
		return fromQuery(r.URL.Query())
	}
	req := &SimRequest{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, errs.Configf("request body larger than %d bytes", tooBig.Limit)
		}
		if errors.Is(err, io.EOF) {
			return nil, errs.Config("empty request body")
		}
		return nil, errs.WrapKind(err, errs.KindConfig, "decode request body")
	}
	return req, nil
}

func fromQuery(q url.Values) (*SimRequest, error) {
	req := &SimRequest{
		Name:   q.Get("name"),
		Format: q.Get("format"),
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errs.Configf("invalid seed %q", v)
		}
		req.Seed = &seed
	}
	var err error
	if req.Iterations, err = intParam(q, "iterations"); err != nil {
		return nil, err
	}
	if q.Get("precision") != "" {
		prec, err := intParam(q, "precision")
		if err != nil {
			return nil, err
		}
		req.Precision = &prec
	}
	if req.Guard, err = boolParam(q, "guard"); err != nil {
		return nil, err
	}
	traj, err := boolParam(q, "trajectory")
	if err != nil {
		return nil, err
	}
	req.Trajectory = traj != nil && *traj
	return req, nil
}

func intParam(q url.Values, key string) (int, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errs.Configf("invalid %s %q", key, v)
	}
	return n, nil
}

func boolParam(q url.Values, key string) (*bool, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, errs.Configf("invalid %s %q", key, v)
	}
	return &b, nil
}

// normalize 補上預設值並檢查欄位
func (req *SimRequest) normalize() error {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if req.Format == "" {
		req.Format = FormatTSV
	}
	if req.Format != FormatTSV && req.Format != FormatJSON {
		return errs.Configf("unknown format %q (tsv, json)", req.Format)
	}
	// 省略時用預設值；明確給 0 代表輸出整數
	if req.Precision == nil {
		prec := trajectory.DefaultPrecision
		req.Precision = &prec
	}
	if *req.Precision < 0 || *req.Precision > 17 {
		return errs.Configf("precision must be in [0, 17], got %d", *req.Precision)
	}
	switch {
	case req.Name == "" && req.Network == nil:
		return errs.Config("either name or network is required")
	case req.Name != "" && req.Network != nil:
		return errs.Config("name and network are mutually exclusive")
	}
	return nil
}

// newSimulator 依請求建立 Simulator，並確認迭代次數不超過伺服器上限
func newSimulator(cfg *svrcfg.SvrCfg, req *SimRequest) (*ssalab.Simulator, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	if req.Seed == nil {
		seed, err := core.NewSeed()
		if err != nil {
			return nil, err
		}
		req.Seed = &seed
	}
	var (
		sim *ssalab.Simulator
		err error
	)
	if req.Network != nil {
		sim, err = cfg.Lab.NewSimulatorFor(req.Network, *req.Seed)
	} else {
		sim, err = cfg.Lab.NewSimulatorWithSeed(req.Name, *req.Seed)
	}
	if err != nil {
		return nil, err
	}
	sim.SetBudget(req.Iterations)
	if sim.Budget() > cfg.MaxIterations {
		return nil, errs.Configf("iterations %d exceed server limit %d", sim.Budget(), cfg.MaxIterations)
	}
	if req.Guard != nil {
		sim.SetNegativeGuard(*req.Guard)
	}
	return sim, nil
}
