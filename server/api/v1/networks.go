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

package v1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/ssalab"
	"github.com/zintix-labs/ssalab/catalog"
	"github.com/zintix-labs/ssalab/errs"
	"github.com/zintix-labs/ssalab/server/httperr"
)

type NetworksHandler struct {
	lab *ssalab.Lab
}

type NetworksResponse struct {
	Networks []catalog.Summary `json:"networks"`
}

func NewNetworksHandler(lab *ssalab.Lab) (*NetworksHandler, error) {
	if lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	return &NetworksHandler{lab: lab}, nil
}

// List GET /v1/networks
func (h *NetworksHandler) List(w http.ResponseWriter, r *http.Request) {
	sum, err := h.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NetworksResponse{Networks: sum})
}

// Get GET /v1/networks/{name}：回傳完整網路描述，可直接當作 POST /v1/sim 的內嵌網路
func (h *NetworksHandler) Get(w http.ResponseWriter, r *http.Request) {
	net, err := h.lab.Network(chi.URLParam(r, "name"))
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, http.StatusOK, net)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
