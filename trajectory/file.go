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

package trajectory

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/ssalab/errs"
)

// Compression 軌跡檔壓縮方式
type Compression uint8

const (
	None Compression = iota
	Gzip
	Zstd
)

// CompressionFor 依副檔名決定壓縮方式：.gz → gzip，.zst → zstd，其餘不壓縮。
func CompressionFor(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return Gzip
	case strings.HasSuffix(lower, ".zst"):
		return Zstd
	default:
		return None
	}
}

// File 寫入檔案（可選壓縮）的 TSV sink，使用完必須 Close。
type File struct {
	*TSV
	f  *os.File
	zw io.WriteCloser // nil 表示未壓縮
}

// OpenFile 建立（覆寫）軌跡檔，壓縮方式由副檔名決定。
func OpenFile(path string, prec int) (*File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.WrapKind(err, errs.KindIO, "create trajectory file")
	}
	out, err := NewCompressed(f, CompressionFor(path), prec)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	out.f = f
	return out, nil
}

// NewCompressed 在任意 writer 上包一層壓縮後輸出 TSV；Close 不會關閉 w 本身。
func NewCompressed(w io.Writer, c Compression, prec int) (*File, error) {
	out := &File{}
	switch c {
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
		if err != nil {
			return nil, errs.WrapKind(err, errs.KindIO, "create gzip writer")
		}
		out.zw = gw
		w = gw
	case Zstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, errs.WrapKind(err, errs.KindIO, "create zstd writer")
		}
		out.zw = zw
		w = zw
	}
	out.TSV = NewTSV(w, prec)
	return out, nil
}

// Close 依序 flush TSV、關閉壓縮器、關閉檔案。
func (f *File) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	keep(f.TSV.Flush())
	if f.zw != nil {
		if err := f.zw.Close(); err != nil {
			keep(errs.WrapKind(err, errs.KindIO, "close compressor"))
		}
	}
	if f.f != nil {
		if err := f.f.Close(); err != nil {
			keep(errs.WrapKind(err, errs.KindIO, "close trajectory file"))
		}
	}
	return first
}
