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

// Package demo 以內嵌的示範網路組出可直接使用的 Lab 與 server 設定。
package demo

import (
	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/demo/networks"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/sdk/core"
	"github.com/zintix-labs/ssalab/server/logger"
	"github.com/zintix-labs/ssalab/server/svrcfg"
)

// NewLab 註冊所有示範網路並 Freeze
func NewLab() (*ssalab.Lab, error) {
	lab, err := ssalab.NewAuto(core.Default(), ssalab.Networks(networks.FS))
	if err != nil {
		return nil, errs.Wrap(err, "new demo lab failed")
	}
	return lab, nil
}

// NewServerConfig 示範網路 + 非同步 dev logger
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := NewLab()
	if err != nil {
		return nil, err
	}
	return &svrcfg.SvrCfg{
		Log: logger.NewDefaultAsyncLogger(logger.ModeDev),
		Lab: lab,
	}, nil
}
