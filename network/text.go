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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zintix-labs/ssalab/errs"
)

// ParseText 解析行導向的反應檔：
//
//	1.0 1000            # volume iterations
//	species 2
//	A 100
//	B 0
//	reactions 2
//	A > B | 1.0
//	2 A > 0 | 0.001
//
// 空行與 '#' 之後的內容會被忽略。區段標題的文字不檢查，只讀後面的數量。
func ParseText(name string, r io.Reader) (*Network, error) {
	p := &textParser{sc: bufio.NewScanner(r)}
	n := &Network{Name: name}

	head, err := p.fields(2)
	if err != nil {
		return nil, errs.Wrap(err, "read volume/iterations")
	}
	if n.Volume, err = strconv.ParseFloat(head[0], 64); err != nil {
		return nil, p.errf("invalid volume %q", head[0])
	}
	if n.Iterations, err = strconv.Atoi(head[1]); err != nil {
		return nil, p.errf("invalid iterations %q", head[1])
	}

	ns, err := p.count()
	if err != nil {
		return nil, errs.Wrap(err, "read species count")
	}
	n.Species = make([]Species, 0, ns)
	for i := 0; i < ns; i++ {
		f, err := p.fields(2)
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("read species %d", i))
		}
		amt, perr := strconv.ParseFloat(f[1], 64)
		if perr != nil {
			return nil, p.errf("invalid amount %q for species %s", f[1], f[0])
		}
		n.Species = append(n.Species, Species{Name: f[0], Amount: amt})
	}

	nr, err := p.count()
	if err != nil {
		return nil, errs.Wrap(err, "read reaction count")
	}
	idx := n.index()
	n.Reactions = make([]Reaction, 0, nr)
	for i := 0; i < nr; i++ {
		line, err := p.line()
		if err != nil {
			return nil, errs.Wrap(err, fmt.Sprintf("read reaction %d", i))
		}
		eq, kStr, ok := strings.Cut(line, "|")
		if !ok {
			return nil, p.errf("reaction %q: missing '| rate'", line)
		}
		k, perr := strconv.ParseFloat(strings.TrimSpace(kStr), 64)
		if perr != nil {
			return nil, p.errf("reaction %q: invalid rate %q", line, strings.TrimSpace(kStr))
		}
		st, perr := ParseEquation(eq, idx, len(n.Species))
		if perr != nil {
			return nil, errs.WrapWithExtra(perr, "parse reaction", fmt.Sprintf("line=%d", p.lineNo))
		}
		n.Reactions = append(n.Reactions, Reaction{
			Equation: strings.TrimSpace(eq),
			Stoich:   st,
			Rate:     k,
		})
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

type textParser struct {
	sc     *bufio.Scanner
	lineNo int
}

// line 回傳下一個非空白、去除註解的行
func (p *textParser) line() (string, error) {
	for p.sc.Scan() {
		p.lineNo++
		s := p.sc.Text()
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if s != "" {
			return s, nil
		}
	}
	if err := p.sc.Err(); err != nil {
		return "", errs.WrapKind(err, errs.KindIO, "scan network text")
	}
	return "", p.errf("unexpected end of input")
}

func (p *textParser) fields(want int) ([]string, error) {
	s, err := p.line()
	if err != nil {
		return nil, err
	}
	f := strings.Fields(s)
	if len(f) != want {
		return nil, p.errf("expected %d fields, got %q", want, s)
	}
	return f, nil
}

// count 讀取 "species 3" / "reactions 2" 形式的區段標題
func (p *textParser) count() (int, error) {
	f, err := p.fields(2)
	if err != nil {
		return 0, err
	}
	c, cerr := strconv.Atoi(f[1])
	if cerr != nil || c < 0 {
		return 0, p.errf("invalid count %q", f[1])
	}
	return c, nil
}

func (p *textParser) errf(format string, a ...any) error {
	return errs.NewWithExtra(errs.Warn, fmt.Sprintf(format, a...), fmt.Sprintf("line=%d", p.lineNo)).WithKind(errs.KindConfig)
}
