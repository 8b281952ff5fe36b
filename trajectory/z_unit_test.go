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
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T, s Sink) {
	t.Helper()
	require.NoError(t, s.Header([]string{"A", "B"}))
	require.NoError(t, s.Row(0, []float64{10, 0}))
	require.NoError(t, s.Row(0.125, []float64{9, 1}))
	require.NoError(t, s.Flush())
}

const sampleTSV = "Time\tA\tB\n" +
	"0.0000000000\t10.0000000000\t0.0000000000\n" +
	"0.1250000000\t9.0000000000\t1.0000000000\n"

func TestTSVFormat(t *testing.T) {
	var buf bytes.Buffer
	writeSample(t, NewTSV(&buf, -1))
	assert.Equal(t, sampleTSV, buf.String())
}

func TestTSVPrecision(t *testing.T) {
	var buf bytes.Buffer
	s := NewTSV(&buf, 3)
	require.NoError(t, s.Row(1.0/3, []float64{2}))
	require.NoError(t, s.Flush())
	assert.Equal(t, "0.333\t2.000\n", buf.String())

	// 0 位小數為整數輸出，不是預設值
	buf.Reset()
	s = NewTSV(&buf, 0)
	require.NoError(t, s.Row(1.5, []float64{3}))
	require.NoError(t, s.Flush())
	assert.Equal(t, "2\t3\n", buf.String())
}

func TestMemoryClonesRows(t *testing.T) {
	m := &Memory{}
	names := []string{"A"}
	row := []float64{1}
	require.NoError(t, m.Header(names))
	require.NoError(t, m.Row(0, row))
	row[0] = 99
	names[0] = "Z"
	assert.Equal(t, []string{"A"}, m.Names)
	assert.Equal(t, 1.0, m.Samples[0].Amounts[0])
}

type failing struct{ Discard }

func (failing) Row(float64, []float64) error { return errors.New("disk full") }

func TestMultiFansOutAndStops(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	writeSample(t, Multi(a, b))
	assert.Len(t, a.Samples, 2)
	assert.Equal(t, a.Samples, b.Samples)

	c := &Memory{}
	s := Multi(failing{}, c)
	require.NoError(t, s.Header([]string{"A"}))
	assert.Error(t, s.Row(0, []float64{1}))
	assert.Empty(t, c.Samples)
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, Gzip, CompressionFor("out.tsv.gz"))
	assert.Equal(t, Zstd, CompressionFor("OUT.TSV.ZST"))
	assert.Equal(t, None, CompressionFor("out.tsv"))
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var r io.Reader = f
	switch CompressionFor(path) {
	case Gzip:
		zr, err := gzip.NewReader(f)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	case Zstd:
		zr, err := zstd.NewReader(f)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestOpenFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"traj.tsv", "traj.tsv.gz", "traj.tsv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			f, err := OpenFile(path, DefaultPrecision)
			require.NoError(t, err)
			writeSample(t, f)
			require.NoError(t, f.Close())
			assert.Equal(t, sampleTSV, readBack(t, path))
		})
	}
}

func TestOpenFileBadDir(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing", "x.tsv"), DefaultPrecision)
	assert.Error(t, err)
}
