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

package stats

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/zintix-labs/ssalab/errs"
	"gopkg.in/yaml.v3"
)

// StatReportRender 定義輸出行為
type StatReportRender interface {
	Write(w io.Writer, r *StatReport) error
}

// Json渲染
type JsonStatReportRender struct{}

func (jr *JsonStatReportRender) Write(w io.Writer, r *StatReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAML渲染
type YAMLStatReportRender struct{}

func (yr *YAMLStatReportRender) Write(w io.Writer, r *StatReport) error {
	// 只有「最內層的一維陣列」輸出成 flow style：[..., ...]
	return forceReadableList(w, r)
}

// 文字表格渲染
type TextStatReportRender struct {
	Elapsed time.Duration
}

func (tr *TextStatReportRender) Write(w io.Writer, r *StatReport) error {
	r.Fprint(w, tr.Elapsed)
	return nil
}

// Formats 支援的報表格式
var Formats = []string{"text", "json", "yaml"}

// RenderFor 依格式名稱取得渲染器
func RenderFor(format string, elapsed time.Duration) (StatReportRender, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "txt":
		return &TextStatReportRender{Elapsed: elapsed}, nil
	case "json":
		return &JsonStatReportRender{}, nil
	case "yaml", "yml":
		return &YAMLStatReportRender{}, nil
	default:
		return nil, errs.Configf("unknown summary format %q (available: %s)", format, strings.Join(Formats, ", "))
	}
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

// styleReadableSequences 不含子 sequence 的 sequence（最內層）改為 flow style，外層維持 block
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}

	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}

	case yaml.SequenceNode:
		hasChild := false
		for _, c := range n.Content {
			if c != nil && (c.Kind == yaml.SequenceNode || c.Kind == yaml.MappingNode) {
				hasChild = true
			}
			styleReadableSequences(c)
		}
		if !hasChild {
			n.Style = yaml.FlowStyle
		}
	}
}
