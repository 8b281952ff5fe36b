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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zintix-labs/ssalab/catalog"
	"github.com/zintix-labs/ssalab/engine"
	"github.com/zintix-labs/ssalab/errs"
)

func exec(t *testing.T, a ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errb bytes.Buffer
	code = run(context.Background(), a, &out, &errb)
	return out.String(), errb.String(), code
}

func TestRunByName(t *testing.T) {
	out, stderr, code := exec(t, "run", "decay", "--seed", "42", "--iterations", "5")
	require.Equal(t, ExitOK, code, stderr)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Time\tA\tB", lines[0])
	assert.Contains(t, stderr, "[NETWORK:decay]")
	assert.Contains(t, stderr, "completed")

	again, _, _ := exec(t, "run", "decay", "--seed", "42", "--iterations", "5", "--rng", "pcg64")
	assert.Equal(t, out, again)

	other, _, _ := exec(t, "run", "decay", "--seed", "42", "--iterations", "5", "--rng", "pcg32")
	assert.NotEqual(t, out, other)

	ints, stderr, code := exec(t, "run", "decay", "--seed", "42", "--iterations", "1", "--precision", "0")
	require.Equal(t, ExitOK, code, stderr)
	// --precision 0 輸出整數
	assert.Equal(t, "0\t1000\t0", strings.Split(ints, "\n")[1])
}

func TestRunCompressedFileWithJSONSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traj.tsv.zst")
	out, stderr, code := exec(t, "run", "birth-death", "--seed", "1", "--iterations", "100",
		"--out", path, "--summary", "json", "--precision", "3")
	require.Equal(t, ExitOK, code, stderr)

	var rep struct {
		Summary struct {
			Network string
			Seed    int64
			Events  int
			Status  string
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "birth-death", rep.Summary.Network)
	assert.EqualValues(t, 1, rep.Summary.Seed)
	assert.Equal(t, 100, rep.Summary.Events)
	assert.Equal(t, "completed", rep.Summary.Status)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 102)
	assert.Equal(t, "0.000\t0.000", lines[1])
}

func TestRunNetworkFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pair.rxn")
	require.NoError(t, os.WriteFile(path, []byte("1 10\nspecies 2\nA 3\nB 0\nreactions 1\nA > B | 1\n"), 0o644))

	out, stderr, code := exec(t, "run", path, "--seed", "9", "--summary", "none")
	require.Equal(t, ExitOK, code, stderr)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// A=3 三次反應後耗盡：header + 初始 + 3
	require.Len(t, lines, 5)
	assert.True(t, strings.HasSuffix(lines[4], "\t0.0000000000\t3.0000000000"))
	assert.Empty(t, stderr)
}

func TestRunErrors(t *testing.T) {
	_, _, code := exec(t, "run", "nope", "--summary", "none")
	assert.Equal(t, ExitConfig, code)

	_, _, code = exec(t, "run", "decay", "--summary", "xml")
	assert.Equal(t, ExitConfig, code)

	_, _, code = exec(t, "run", "decay", "--bogus")
	assert.Equal(t, ExitConfig, code)

	_, _, code = exec(t, "run")
	assert.Equal(t, ExitConfig, code)

	_, _, code = exec(t, "run", "decay", "--rng", "mt19937")
	assert.Equal(t, ExitConfig, code)

	_, _, code = exec(t, "run", "decay", "--pprof", "trace")
	assert.Equal(t, ExitConfig, code)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`name: good
volume: 1
iterations: 10
species: [{name: A, amount: 5}, {name: B, amount: 0}]
reactions: [{equation: "2 A > B", rate: 0.5}]
`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`name: bad
volume: 1
iterations: 10
species: [{name: A, amount: 5}]
reactions: [{equation: "A > C", rate: 1}]
`), 0o644))

	out, _, code := exec(t, "validate", good)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "ok\t"+good+"\tgood: 2 species, 1 reactions")

	out, _, code = exec(t, "validate", good, bad)
	assert.Equal(t, ExitConfig, code)
	assert.Contains(t, out, "FAIL\t"+bad)
	assert.Contains(t, out, "species C was not initialized")
}

func TestNetworks(t *testing.T) {
	out, _, code := exec(t, "networks", "--format", "json")
	require.Equal(t, ExitOK, code)
	var sum []catalog.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	require.Len(t, sum, 4)
	assert.Equal(t, "birth-death", sum[0].Name)

	out, _, code = exec(t, "networks")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "michaelis-menten")

	_, _, code = exec(t, "networks", "--no-demo")
	assert.Equal(t, ExitConfig, code)
}

func TestNetworksExtraDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.json"), []byte(`{
		"name": "extra", "volume": 1, "iterations": 5,
		"species": [{"name": "X", "amount": 1}],
		"reactions": [{"equation": "0 > X", "rate": 1}]
	}`), 0o644))
	out, _, code := exec(t, "networks", "--no-demo", "--networks", dir)
	require.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(out, "extra"))

	out, stderr, code := exec(t, "run", "extra", "--networks", dir, "--seed", "5", "--summary", "none")
	require.Equal(t, ExitOK, code, stderr)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 7)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, exitCode(nil))
	assert.Equal(t, ExitDiverged, exitCode(errs.WrapWithExtra(engine.ErrDiverged, "invalid_state", "")))
	assert.Equal(t, ExitSelection, exitCode(errs.Wrap(engine.ErrSelectionMiss, "run")))
	assert.Equal(t, ExitConfig, exitCode(errs.Config("bad")))
	assert.Equal(t, ExitFailure, exitCode(io.ErrShortWrite))
}
