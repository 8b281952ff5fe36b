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

// Package stats 產生單次模擬的統計報表。
//
// 報表由 recorder 在模擬結束時填入原始累積量，Done 會一次性算出衍生數值
// （時間加權平均、標準差、反應觸發比例與信賴區間、等待時間檢定）。
package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/gonum/stat"
)

var lang language.Tag = language.English

// Confidence 報表中所有信賴區間使用的信賴水準
const Confidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"lo"`
	Hi float64 `json:"Hi" yaml:"hi"`
}

// StatReport 單次模擬統計報告
type StatReport struct {
	Summary   *SummaryReport    `json:"Summary"   yaml:"summary"`
	Species   []*SpeciesReport  `json:"Species"   yaml:"species"`
	Reactions []*ReactionReport `json:"Reactions" yaml:"reactions"`
	Waiting   *WaitingReport    `json:"Waiting"   yaml:"waiting"`
	isDone    bool
}

type SummaryReport struct {
	RunID   string  `json:"RunID"            yaml:"run_id"`
	Network string  `json:"Network"          yaml:"network"`
	Seed    int64   `json:"Seed"             yaml:"seed"`
	RNG     string  `json:"RNG"              yaml:"rng"`
	Status  string  `json:"Status"           yaml:"status"`
	Detail  string  `json:"Detail,omitempty" yaml:"detail,omitempty"`
	Budget  int     `json:"Budget"           yaml:"budget"`
	Events  int     `json:"Events"           yaml:"events"`
	Time    float64 `json:"Time"             yaml:"time"`
	Volume  float64 `json:"Volume"           yaml:"volume"`
}

// SpeciesReport 單一物種統計
//
// Levels / Durations 為「數量 → 停留時間」的佔用表，Done 時轉成時間加權平均與標準差
type SpeciesReport struct {
	Name      string    `json:"Name"      yaml:"name"`
	Initial   float64   `json:"Initial"   yaml:"initial"`
	Final     float64   `json:"Final"     yaml:"final"`
	Min       float64   `json:"Min"       yaml:"min"`
	Max       float64   `json:"Max"       yaml:"max"`
	Mean      float64   `json:"Mean"      yaml:"mean"`
	Std       float64   `json:"Std"       yaml:"std"`
	Levels    []float64 `json:"-"         yaml:"-"`
	Durations []float64 `json:"-"         yaml:"-"`
}

// ReactionReport 單一反應觸發統計
type ReactionReport struct {
	Index    int     `json:"Index"    yaml:"index"`
	Equation string  `json:"Equation" yaml:"equation"`
	Fired    int     `json:"Fired"    yaml:"fired"`
	Share    float64 `json:"Share"    yaml:"share"`
	ShareCI  CI      `json:"ShareCI"  yaml:"share_ci"`
}

// WaitingReport 等待時間檢定
//
// 每一步的 a0·τ 應服從 Exponential(1)；KS 為與理論 CDF 的最大距離，
// Critical 為對應信賴水準的漸近臨界值。
type WaitingReport struct {
	Samples  int       `json:"Samples"  yaml:"samples"`
	MeanTau  float64   `json:"MeanTau"  yaml:"mean_tau"`
	KS       float64   `json:"KS"       yaml:"ks"`
	Critical float64   `json:"Critical" yaml:"critical"`
	Pass     bool      `json:"Pass"     yaml:"pass"`
	Scaled   []float64 `json:"-"        yaml:"-"`
	TauSum   float64   `json:"-"        yaml:"-"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積量轉換為最終統計結果並鎖定 isDone 標記（重複呼叫無作用）。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	for _, sp := range s.Species {
		sp.Mean, sp.Std = timeWeighted(sp)
	}
	for _, r := range s.Reactions {
		r.Share, r.ShareCI = proportionCICP(r.Fired, s.Summary.Events, Confidence)
	}
	if w := s.Waiting; w != nil {
		w.Samples = len(w.Scaled)
		if s.Summary.Events > 0 {
			w.MeanTau = w.TauSum / float64(s.Summary.Events)
		}
		w.KS = ksExponential(w.Scaled)
		w.Critical = ksCritical(w.Samples)
		w.Pass = w.Samples == 0 || w.KS <= w.Critical
	}
	s.isDone = true
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// Fprint 以文字表格輸出（耗時、摘要、物種、反應）
func (s *StatReport) Fprint(w io.Writer, ut time.Duration) {
	s.Done()
	fmt.Fprint(w, formatDuration(ut, s.Summary.Events))
	sk, sm := s.fmtBasic()
	fmt.Fprintln(w, fmtTable(s.Summary.Network, sk, sm))
	fmt.Fprintln(w, fmtGrid(s.speciesGrid()))
	if len(s.Reactions) > 0 {
		fmt.Fprintln(w, fmtGrid(s.reactionGrid()))
	}
}

// ============================================================
// ** 內部方法 **
// ============================================================

// timeWeighted 以停留時間為權重計算母體平均與標準差；總時間為 0 時退回初始值
func timeWeighted(sp *SpeciesReport) (mean, std float64) {
	total := 0.0
	for _, d := range sp.Durations {
		total += d
	}
	if total <= 0 {
		return sp.Initial, 0
	}
	return stat.PopMeanStdDev(sp.Levels, sp.Durations)
}

func formatDuration(d time.Duration, events int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	eps := int(float64(events) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\neps : %d events/sec\n", sec, eps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\neps : %d events/sec\n", m, s, eps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\neps : %d events/sec\n", h, m, s, eps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Network":   s.Summary.Network,
		"Run ID":    s.Summary.RunID,
		"Seed":      fmt.Sprintf("%d", s.Summary.Seed),
		"RNG":       s.Summary.RNG,
		"Status":    s.Summary.Status,
		"Events":    p.Sprintf("%d / %d", s.Summary.Events, s.Summary.Budget),
		"Sim Time":  p.Sprintf("%.6f", s.Summary.Time),
		"Volume":    p.Sprintf("%g", s.Summary.Volume),
		"Mean Tau":  "-",
		"KS (a0·τ)": "-",
	}
	keys := []string{"Network", "Run ID", "Seed", "RNG", "Status", "Events", "Sim Time", "Volume", "Mean Tau", "KS (a0·τ)"}
	if s.Summary.Detail != "" {
		basic["Detail"] = s.Summary.Detail
		keys = append(keys, "Detail")
	}
	if w := s.Waiting; w != nil && w.Samples > 0 {
		basic["Mean Tau"] = p.Sprintf("%.6g", w.MeanTau)
		verdict := "ok"
		if !w.Pass {
			verdict = "reject"
		}
		basic["KS (a0·τ)"] = p.Sprintf("%.4f (crit %.4f, %s)", w.KS, w.Critical, verdict)
	}
	return keys, basic
}

func (s *StatReport) speciesGrid() [][]string {
	p := message.NewPrinter(lang)
	rows := [][]string{{"Species", "Initial", "Final", "Min", "Max", "Mean", "Std"}}
	for _, sp := range s.Species {
		rows = append(rows, []string{
			sp.Name,
			p.Sprintf("%.0f", sp.Initial),
			p.Sprintf("%.0f", sp.Final),
			p.Sprintf("%.0f", sp.Min),
			p.Sprintf("%.0f", sp.Max),
			p.Sprintf("%.3f", sp.Mean),
			p.Sprintf("%.3f", sp.Std),
		})
	}
	return rows
}

func (s *StatReport) reactionGrid() [][]string {
	p := message.NewPrinter(lang)
	rows := [][]string{{"#", "Reaction", "Fired", "Share", "95% CI"}}
	for _, r := range s.Reactions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Index),
			r.Equation,
			p.Sprintf("%d", r.Fired),
			p.Sprintf("%.2f %%", 100*r.Share),
			p.Sprintf("[%.2f%%,%.2f%%]", 100*r.ShareCI.Lo, 100*r.ShareCI.Hi),
		})
	}
	return rows
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := max((totalInner-titleW)/2, 0)
	right := max(totalInner-titleW-left, 0)

	var b strings.Builder
	b.WriteString(top)
	fmt.Fprintf(&b, "|%s%s%s|\n", blank(left), title, blank(right))
	b.WriteString(divider)
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	b.WriteString(divider)
	return b.String()
}

// fmtGrid 第一列為表頭；第一欄靠左，其餘靠右
func fmtGrid(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	widths := make([]int, len(rows[0]))
	for _, r := range rows {
		for i, c := range r {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}
	var divider strings.Builder
	divider.WriteString("+")
	for _, w := range widths {
		divider.WriteString(strings.Repeat("-", w+2) + "+")
	}
	divider.WriteString("\n")

	var b strings.Builder
	b.WriteString(divider.String())
	for ri, r := range rows {
		b.WriteString("|")
		for i, c := range r {
			pad := blank(widths[i] - runewidth.StringWidth(c))
			if i == 0 {
				fmt.Fprintf(&b, " %s%s |", c, pad)
			} else {
				fmt.Fprintf(&b, " %s%s |", pad, c)
			}
		}
		b.WriteString("\n")
		if ri == 0 {
			b.WriteString(divider.String())
		}
	}
	b.WriteString(divider.String())
	return b.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
