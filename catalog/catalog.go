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

// Package catalog 反應網路目錄：網路名稱 → 設定檔名稱。
//
// 設定檔來源一律是一或多個「扁平」的 fs.FS（不允許子目錄），
// 檔名在所有來源之間必須唯一。註冊完成後 Freeze，之後只讀。
package catalog

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/network"
)

var (
	ErrDupName   = errs.Config("duplicate network name")
	ErrNotFound  = errs.NewWarn("network not found")
	ErrFrozen    = errs.NewWarn("can not register when catalog already frozen")
	ErrNotFrozen = errs.NewFatal("catalog is not frozen yet")
)

type Entry struct {
	Name       string
	ConfigName string
}

// Summary 目錄列表用的網路摘要
type Summary struct {
	Name       string   `json:"name"       yaml:"name"`
	File       string   `json:"file"       yaml:"file"`
	Species    []string `json:"species"    yaml:"species"`
	Reactions  []string `json:"reactions"  yaml:"reactions"`
	Volume     float64  `json:"volume"     yaml:"volume"`
	Iterations int      `json:"iterations" yaml:"iterations"`
}

type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一個設定檔只能對應一個網路
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
	}, nil
}

// Key 名稱正規化（去空白、小寫）
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register 一次註冊多筆；任一筆不合法則全部不寫入
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return ErrFrozen
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for _, meta := range metas {
		key := Key(meta.Name)
		if key == "" {
			return errs.Config("network name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.Configf("config file not found: %s", meta.ConfigName)
		}
		if _, ok := c.byName[key]; ok {
			return errs.WrapWithExtra(ErrDupName, "register network", key)
		}
		if _, ok := seenName[key]; ok {
			return errs.WrapWithExtra(ErrDupName, "register network", key)
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.Configf("duplicate config name: %s", meta.ConfigName)
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.Configf("duplicate config name: %s", meta.ConfigName)
		}
		seenName[key] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		key := Key(meta.Name)
		meta.Name = key
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[key] = meta
		c.names = append(c.names, key)
	}
	sort.Strings(c.names)
	return nil
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[Key(name)]
	return m, ok
}

func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Cfg() *multiFS {
	return c.config
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// Network 讀取並解析網路設定檔；每次呼叫都回傳新的實例，呼叫端可自由修改
func (c *Catalog) Network(name string) (*network.Network, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.WrapWithExtra(ErrNotFound, "lookup network", name)
	}
	src, err := c.config.GetFS(e.ConfigName)
	if err != nil {
		return nil, err
	}
	return network.LoadFS(src, e.ConfigName)
}

// Summaries 依名稱排序的所有網路摘要
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.names))
	for _, e := range c.All() {
		net, err := c.Network(e.Name)
		if err != nil {
			return nil, err
		}
		s := Summary{
			Name:       e.Name,
			File:       e.ConfigName,
			Species:    net.Names(),
			Reactions:  make([]string, len(net.Reactions)),
			Volume:     net.Volume,
			Iterations: net.Iterations,
		}
		for i := range net.Reactions {
			s.Reactions[i] = net.Describe(i)
		}
		out = append(out, s)
	}
	return out, nil
}

func validFileName(file string) error {
	if file == "" {
		return errs.Config("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.Configf("invalid config filename: %q (must be a basename; no / \\ :)", file)
	}
	// 2) 必須是可辨識的網路格式
	if !network.IsNetworkFile(file) {
		return errs.Configf("invalid config filename: %q (must end with %s)", file, strings.Join(network.Exts, ", "))
	}
	// 3) 不能以 . 開頭
	if strings.HasPrefix(file, ".") {
		return errs.Configf("invalid config filename: %q (cannot start with '.')", file)
	}
	return nil
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
	files []string       // 排序後的設定檔名稱
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	// eager validate: build index and detect duplicates
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.Configf("network FS must be flat (no subdirectories): %q", path)
			}
			if strings.HasPrefix(path, ".") || !network.IsNetworkFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.Configf("duplicate network file %q in fs[%d] and fs[%d]", path, prev, i)
			}
			m.index[path] = i
			m.files = append(m.files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(m.files)
	return m, nil
}

// GetFS 回傳包含該設定檔的來源；未索引的檔名回傳 ErrNotFound
func (m *multiFS) GetFS(name string) (fs.FS, error) {
	if id, ok := m.index[name]; ok {
		return m.src[id], nil
	}
	return nil, errs.WrapWithExtra(ErrNotFound, "file name does not exist in catalog", name)
}

// Files 所有已索引的網路設定檔（依檔名排序）
func (m *multiFS) Files() []string {
	return append([]string(nil), m.files...)
}
