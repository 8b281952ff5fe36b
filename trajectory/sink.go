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

// Package trajectory 定義軌跡輸出端（sink）。
//
// Sink 是只能追加、有序、不可隨機存取的：一列表頭，接著每個事件一列。
// 實作可以是 stdout、檔案、壓縮檔、HTTP 回應或記憶體。
package trajectory

import (
	"bufio"
	"io"
	"slices"
	"strconv"

	"github.com/zintix-labs/ssalab/errs"
)

// DefaultPrecision 每個數值輸出的小數位數
const DefaultPrecision = 10

// Sink 軌跡輸出端
type Sink interface {
	// Header 寫入表頭："Time" + 物種名稱
	Header(names []string) error
	// Row 寫入一列樣本；amounts 只在呼叫期間有效，需要保存請自行複製
	Row(t float64, amounts []float64) error
	// Flush 把緩衝寫出
	Flush() error
}

// TSV 以 tab 分隔的固定小數位輸出
type TSV struct {
	w    *bufio.Writer
	prec int
	buf  []byte
}

// NewTSV 建立 TSV sink，prec < 0 時使用 DefaultPrecision；prec 為 0 輸出整數
func NewTSV(w io.Writer, prec int) *TSV {
	if prec < 0 {
		prec = DefaultPrecision
	}
	return &TSV{w: bufio.NewWriterSize(w, 64<<10), prec: prec, buf: make([]byte, 0, 256)}
}

func (s *TSV) Header(names []string) error {
	b := append(s.buf[:0], "Time"...)
	for _, n := range names {
		b = append(b, '\t')
		b = append(b, n...)
	}
	b = append(b, '\n')
	s.buf = b
	return s.write(b)
}

func (s *TSV) Row(t float64, amounts []float64) error {
	b := strconv.AppendFloat(s.buf[:0], t, 'f', s.prec, 64)
	for _, v := range amounts {
		b = append(b, '\t')
		b = strconv.AppendFloat(b, v, 'f', s.prec, 64)
	}
	b = append(b, '\n')
	s.buf = b
	return s.write(b)
}

func (s *TSV) Flush() error {
	if err := s.w.Flush(); err != nil {
		return errs.WrapKind(err, errs.KindIO, "flush trajectory")
	}
	return nil
}

func (s *TSV) write(b []byte) error {
	if _, err := s.w.Write(b); err != nil {
		return errs.WrapKind(err, errs.KindIO, "write trajectory")
	}
	return nil
}

// Sample 記憶體中的一列
type Sample struct {
	Time    float64   `json:"t"`
	Amounts []float64 `json:"x"`
}

// Memory 把軌跡保留在記憶體（測試與 HTTP JSON 回應使用）
type Memory struct {
	Names   []string `json:"names"`
	Samples []Sample `json:"samples"`
}

func (m *Memory) Header(names []string) error {
	m.Names = slices.Clone(names)
	return nil
}

func (m *Memory) Row(t float64, amounts []float64) error {
	m.Samples = append(m.Samples, Sample{Time: t, Amounts: slices.Clone(amounts)})
	return nil
}

func (m *Memory) Flush() error { return nil }

// Discard 丟棄所有輸出（只需要統計報表時使用）
type Discard struct{}

func (Discard) Header([]string) error        { return nil }
func (Discard) Row(float64, []float64) error { return nil }
func (Discard) Flush() error                 { return nil }

// Multi 依序寫入多個 sink，任何一個失敗即回傳
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Header(names []string) error {
	for _, s := range m {
		if err := s.Header(names); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Row(t float64, amounts []float64) error {
	for _, s := range m {
		if err := s.Row(t, amounts); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Flush() error {
	for _, s := range m {
		if err := s.Flush(); err != nil {
			return err
		}
	}
	return nil
}
