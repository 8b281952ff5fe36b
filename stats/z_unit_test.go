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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/ssalab/stats"
	"gopkg.in/yaml.v3"
)

// buildStatReport 一個物種在 [0,1) 為 2、在 [1,4) 為 4；兩個反應共觸發 10 次
func buildStatReport(scaled []float64) *stats.StatReport {
	return &stats.StatReport{
		Summary: &stats.SummaryReport{
			RunID:   "run-1",
			Network: "TestNet",
			Seed:    7,
			RNG:     "pcg64",
			Status:  "completed",
			Budget:  10,
			Events:  10,
			Time:    4,
			Volume:  1,
		},
		Species: []*stats.SpeciesReport{{
			Name: "A", Initial: 2, Final: 4, Min: 2, Max: 4,
			Levels:    []float64{2, 4},
			Durations: []float64{1, 3},
		}},
		Reactions: []*stats.ReactionReport{
			{Index: 0, Equation: "0 > A", Fired: 7},
			{Index: 1, Equation: "A > 0", Fired: 3},
		},
		Waiting: &stats.WaitingReport{Scaled: scaled, TauSum: 4},
	}
}

func TestTimeWeightedMean(t *testing.T) {
	rep := buildStatReport(nil)
	rep.Done()
	sp := rep.Species[0]
	if math.Abs(sp.Mean-3.5) > 1e-12 {
		t.Fatalf("mean got %.12f want 3.5", sp.Mean)
	}
	// E[x²] = (4 + 48)/4 = 13, var = 13 - 12.25
	if want := math.Sqrt(0.75); math.Abs(sp.Std-want) > 1e-12 {
		t.Fatalf("std got %.12f want %.12f", sp.Std, want)
	}
}

func TestZeroTimeFallsBackToInitial(t *testing.T) {
	rep := buildStatReport(nil)
	rep.Species[0].Durations = []float64{0, 0}
	rep.Done()
	if rep.Species[0].Mean != 2 || rep.Species[0].Std != 0 {
		t.Fatalf("got mean=%v std=%v", rep.Species[0].Mean, rep.Species[0].Std)
	}
}

func TestReactionShareCI(t *testing.T) {
	rep := buildStatReport(nil)
	rep.Done()
	r := rep.Reactions[0]
	if r.Share != 0.7 {
		t.Fatalf("share got %v", r.Share)
	}
	if !(r.ShareCI.Lo < 0.7 && 0.7 < r.ShareCI.Hi) || r.ShareCI.Lo < 0 || r.ShareCI.Hi > 1 {
		t.Fatalf("ci %+v does not bracket share", r.ShareCI)
	}
	if math.Abs(rep.Reactions[0].Share+rep.Reactions[1].Share-1) > 1e-12 {
		t.Fatalf("shares must sum to 1")
	}
}

func TestWaitingKS(t *testing.T) {
	// Exponential(1) 的等分位點：KS 距離約為 1/(2n)
	n := 200
	q := make([]float64, n)
	for i := range q {
		p := (float64(i) + 0.5) / float64(n)
		q[i] = -math.Log(1 - p)
	}
	rep := buildStatReport(q)
	rep.Done()
	w := rep.Waiting
	if w.Samples != n || !w.Pass {
		t.Fatalf("exp quantiles should pass: %+v", w)
	}
	if math.Abs(w.KS-0.5/float64(n)) > 1e-9 {
		t.Fatalf("ks got %v", w.KS)
	}
	if math.Abs(w.MeanTau-0.4) > 1e-12 {
		t.Fatalf("mean tau got %v", w.MeanTau)
	}

	// 常數樣本必然被拒絕
	flat := make([]float64, n)
	for i := range flat {
		flat[i] = 1
	}
	rep = buildStatReport(flat)
	rep.Done()
	if rep.Waiting.Pass {
		t.Fatalf("constant samples must fail KS: %+v", rep.Waiting)
	}
}

func TestDoneIdempotent(t *testing.T) {
	rep := buildStatReport(nil)
	rep.Done()
	rep.Species[0].Levels = []float64{100}
	rep.Species[0].Durations = []float64{1}
	rep.Done()
	if rep.Species[0].Mean != 3.5 {
		t.Fatalf("mean changed after second Done")
	}
}

func TestRenderers(t *testing.T) {
	for _, f := range []string{"text", "json", "yaml"} {
		r, err := stats.RenderFor(f, time.Second)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		var buf bytes.Buffer
		if err := buildStatReport(nil).WriteWith(&buf, r); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		out := buf.String()
		switch f {
		case "text":
			for _, want := range []string{"TestNet", "events/sec", "Species", "A > 0", "70.00 %"} {
				if !strings.Contains(out, want) {
					t.Fatalf("text output missing %q:\n%s", want, out)
				}
			}
		case "json":
			var m map[string]any
			if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
				t.Fatalf("json: %v", err)
			}
			if _, ok := m["Species"]; !ok {
				t.Fatalf("json missing Species: %s", out)
			}
			if strings.Contains(out, "Levels") {
				t.Fatalf("raw occupancy must not be rendered")
			}
		case "yaml":
			var m map[string]any
			if err := yaml.Unmarshal(buf.Bytes(), &m); err != nil {
				t.Fatalf("yaml: %v", err)
			}
			if !strings.Contains(out, "status: completed") {
				t.Fatalf("yaml missing status:\n%s", out)
			}
		}
	}
	if _, err := stats.RenderFor("xml", 0); err == nil {
		t.Fatalf("unknown format must fail")
	}
}
