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
	"strconv"
	"strings"
	"unicode"

	"github.com/zintix-labs/ssalab/errs"
)

// ParseEquation 把 "2 A + B > C" 轉成長度為 n 的化學計量向量。
//
// 語法：
//   - 左右兩側以 ">"（或 "->"）分隔。
//   - 每一側為 "0"（空集合）或以 "+" 連接的項目。
//   - 項目為 "[係數] 名稱"，係數可與名稱相連（"2A"），省略則為 1。
//
// 反應物先取負值，再加上生成物，所以 "A > A + B" 的淨變化為 A:0, B:+1。
func ParseEquation(eq string, index map[string]int, n int) ([]int, error) {
	lhs, rhs, ok := strings.Cut(eq, ">")
	if !ok {
		return nil, errs.Configf("reaction %q: missing '>'", eq)
	}
	lhs = strings.TrimSuffix(strings.TrimSpace(lhs), "-")
	if strings.Contains(rhs, ">") {
		return nil, errs.Configf("reaction %q: more than one '>'", eq)
	}

	out := make([]int, n)
	if err := accumulate(out, lhs, -1, index); err != nil {
		return nil, errs.WrapWithExtra(err, "reactants", eq)
	}
	if err := accumulate(out, rhs, +1, index); err != nil {
		return nil, errs.WrapWithExtra(err, "products", eq)
	}
	return out, nil
}

func accumulate(out []int, sideStr string, sign int, index map[string]int) error {
	sideStr = strings.TrimSpace(sideStr)
	if sideStr == "" {
		return errs.Config("empty side (use 0 for no species)")
	}
	if sideStr == "0" {
		return nil
	}
	for _, tok := range strings.Split(sideStr, "+") {
		coef, name, err := parseTerm(tok)
		if err != nil {
			return err
		}
		i, ok := index[name]
		if !ok {
			return errs.Configf("species %s was not initialized", name)
		}
		out[i] += sign * coef
	}
	return nil
}

func parseTerm(tok string) (int, string, error) {
	fields := strings.Fields(tok)
	switch len(fields) {
	case 1:
		f := fields[0]
		// "2A" 形式：前綴數字後必須緊接字母
		cut := strings.IndexFunc(f, func(r rune) bool { return !unicode.IsDigit(r) })
		if cut > 0 && unicode.IsLetter(rune(f[cut])) {
			coef, err := strconv.Atoi(f[:cut])
			if err != nil || coef < 1 {
				return 0, "", errs.Configf("invalid coefficient in %q", f)
			}
			return coef, f[cut:], nil
		}
		if cut == -1 {
			return 0, "", errs.Configf("term %q has no species name", f)
		}
		return 1, f, nil
	case 2:
		coef, err := strconv.Atoi(fields[0])
		if err != nil || coef < 1 {
			return 0, "", errs.Configf("invalid coefficient %q", fields[0])
		}
		return coef, fields[1], nil
	default:
		return 0, "", errs.Configf("invalid term %q", strings.TrimSpace(tok))
	}
}
