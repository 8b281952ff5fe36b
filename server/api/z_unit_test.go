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

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/ssalab/demo"
	"github.com/zintix-labs/ssalab/server/api"
	v1 "github.com/zintix-labs/ssalab/server/api/v1"
	"github.com/zintix-labs/ssalab/server/logger"
	"github.com/zintix-labs/ssalab/server/netsvr"
	"github.com/zintix-labs/ssalab/server/svrcfg"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	lab, err := demo.NewLab()
	require.NoError(t, err)
	cfg := &svrcfg.SvrCfg{
		Log:           logger.NewDefaultLogger(logger.ModeSilence),
		Lab:           lab,
		MaxIterations: 50_000,
	}
	require.NoError(t, cfg.Vaild())
	svr := netsvr.NewChiServer(":0")
	require.NoError(t, api.RegisterRoutes(svr, cfg))
	ts := httptest.NewServer(svr)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestNetworks(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/v1/networks")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list v1.NetworksResponse
	require.NoError(t, json.Unmarshal(body, &list))
	names := make([]string, 0, len(list.Networks))
	for _, s := range list.Networks {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"birth-death", "decay", "dimerization", "michaelis-menten"}, names)

	resp, body = get(t, ts.URL+"/v1/networks/decay")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"decay"`)

	resp, _ = get(t, ts.URL+"/v1/networks/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSimTSV(t *testing.T) {
	ts := newTestServer(t)
	url := ts.URL + "/v1/sim?name=decay&seed=42&iterations=5"

	resp, body := get(t, url)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get(v1.HeaderSeed))
	assert.Equal(t, "completed", resp.Trailer.Get(v1.HeaderStatus))
	assert.Equal(t, "5", resp.Trailer.Get(v1.HeaderEvents))
	assert.NotEmpty(t, resp.Trailer.Get(v1.HeaderRunID))

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Time\tA\tB", lines[0])
	assert.Equal(t, "0.0000000000\t1000.0000000000\t0.0000000000", lines[1])

	// 同一個 seed 重放得到同一條軌跡
	_, again := get(t, url)
	assert.Equal(t, string(body), string(again))
}

func TestSimTSVZeroPrecision(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/v1/sim?name=decay&seed=42&iterations=1&precision=0")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0\t1000\t0", lines[1])
}

func TestSimJSONInlineNetwork(t *testing.T) {
	ts := newTestServer(t)
	payload := `{
		"network": {
			"name": "inline",
			"volume": 1,
			"iterations": 3,
			"species": [{"name": "X", "amount": 2}],
			"reactions": [{"equation": "X > 0", "rate": 1}]
		},
		"seed": 7,
		"format": "json",
		"trajectory": true
	}`
	resp, err := http.Post(ts.URL+"/v1/sim", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Seed   int64 `json:"seed"`
		Report struct {
			Status string  `json:"status"`
			Steps  int     `json:"steps"`
			Time   float64 `json:"time"`
		} `json:"report"`
		Stats struct {
			Summary struct{ Events int }
		} `json:"stats"`
		Trajectory struct {
			Names   []string `json:"names"`
			Samples []struct {
				T float64   `json:"t"`
				X []float64 `json:"x"`
			} `json:"samples"`
		} `json:"trajectory"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.EqualValues(t, 7, out.Seed)
	// X=2 兩次衰變後耗盡
	assert.Equal(t, "exhausted", out.Report.Status)
	assert.Equal(t, 2, out.Report.Steps)
	assert.Equal(t, 2, out.Stats.Summary.Events)
	assert.Equal(t, []string{"X"}, out.Trajectory.Names)
	require.Len(t, out.Trajectory.Samples, 3)
	assert.Equal(t, []float64{0}, out.Trajectory.Samples[2].X)
	assert.InDelta(t, out.Report.Time, out.Trajectory.Samples[2].T, 1e-12)
}

func TestSimBadRequests(t *testing.T) {
	ts := newTestServer(t)
	for _, q := range []string{
		"",                             // 沒有網路
		"name=decay&format=xml",        // 未知格式
		"name=decay&iterations=100000", // 超過上限
		"name=decay&seed=abc",          // seed 非整數
		"name=decay&precision=40",      // 精度超出範圍
	} {
		resp, _ := get(t, ts.URL+"/v1/sim?"+q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}

	resp, _ := get(t, ts.URL+"/v1/sim?name=nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	r, err := http.Post(ts.URL+"/v1/sim", "application/json", bytes.NewBufferString(`{"name":"decay","bogus":1}`))
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	bad := `{"network":{"name":"x","volume":0,"iterations":1,"species":[{"name":"A","amount":1}],"reactions":[]}}`
	r, err = http.Post(ts.URL+"/v1/sim", "application/json", strings.NewReader(bad))
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestStream(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream?name=decay&seed=3&iterations=600"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var head v1.StreamMsg
	require.NoError(t, conn.ReadJSON(&head))
	require.Equal(t, v1.MsgHeader, head.Type)
	assert.Equal(t, []string{"Time", "A", "B"}, head.Names)

	rows := 0
	last := -1.0
	for {
		var m struct {
			Type   string      `json:"type"`
			Rows   [][]float64 `json:"rows"`
			Result struct {
				Report struct {
					Status string `json:"status"`
					Steps  int    `json:"steps"`
				} `json:"report"`
			} `json:"result"`
		}
		require.NoError(t, conn.ReadJSON(&m))
		if m.Type == v1.MsgDone {
			assert.Equal(t, "completed", m.Result.Report.Status)
			assert.Equal(t, 600, m.Result.Report.Steps)
			break
		}
		require.Equal(t, v1.MsgRows, m.Type)
		for _, row := range m.Rows {
			require.Len(t, row, 3)
			assert.GreaterOrEqual(t, row[0], last)
			assert.Equal(t, 1000.0, row[1]+row[2])
			last = row[0]
		}
		rows += len(m.Rows)
	}
	assert.Equal(t, 601, rows)
}

func TestStreamRejectsBeforeUpgrade(t *testing.T) {
	ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream?name=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/v1/stream")
	resp, _ = get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
