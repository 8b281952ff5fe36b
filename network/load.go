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

package network

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/ssalab/errs"
	"gopkg.in/yaml.v3"
)

// Exts 可辨識的設定檔副檔名
var Exts = []string{".yaml", ".yml", ".json", ".rxn"}

// IsNetworkFile 依副檔名判斷是否為網路設定檔（大小寫不敏感）
func IsNetworkFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Exts {
		if ext == e {
			return true
		}
	}
	return false
}

// FromYAML 讀取 YAML 設定、展開方程式並執行基本檢查後回傳。
func FromYAML(data []byte) (*Network, error) {
	n := &Network{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(n); err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, "failed to unmarshal yaml")
	}
	if err := n.Init(); err != nil {
		return nil, err
	}
	return n, nil
}

// FromJSON 讀取 JSON 設定、展開方程式並執行基本檢查後回傳。
func FromJSON(data []byte) (*Network, error) {
	n := &Network{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(n); err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, "failed to unmarshal json")
	}
	if err := n.Init(); err != nil {
		return nil, err
	}
	return n, nil
}

// Decode 依檔名副檔名選擇解析器。
// 若設定檔沒有 name，以去掉副檔名的檔名補上。
func Decode(filename string, raw []byte) (*Network, error) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var (
		n   *Network
		err error
	)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		n, err = FromYAML(raw)
	case ".json":
		n, err = FromJSON(raw)
	case ".rxn":
		n, err = ParseText(stem, bytes.NewReader(raw))
	default:
		return nil, errs.Configf("unsupported network format: %q", base)
	}
	if err != nil {
		return nil, errs.WrapWithExtra(err, "decode network", base)
	}
	if strings.TrimSpace(n.Name) == "" {
		n.Name = stem
	}
	return n, nil
}

// Load 從檔案系統路徑載入
func Load(path string) (*Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, fmt.Sprintf("read network file: %s", path))
	}
	return Decode(path, raw)
}

// LoadFS 從 fs.FS 載入（go:embed 或 os.DirFS）
func LoadFS(fsys fs.FS, name string) (*Network, error) {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errs.WrapKind(err, errs.KindConfig, fmt.Sprintf("read network file: %s", name))
	}
	return Decode(name, raw)
}
