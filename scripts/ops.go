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

// 開發用任務：go run ./scripts <task>
package main

import (
	"fmt"
	"os"
	"sort"
)

type ansi string

const (
	colorYellow ansi = "\033[33m"
	colorGreen  ansi = "\033[32m"
	colorRed    ansi = "\033[31m"
	colorReset  ansi = "\033[0m"
)

func printColor(c ansi, msg string) {
	fmt.Printf("%s%s%s\n", c, msg, colorReset)
}

var tasks = map[string]func() error{
	"test":          runTest,
	"test-all":      runTestAll,
	"test-detail":   runTestDetail,
	"golden-update": runGoldenUpdate,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	task, ok := tasks[os.Args[1]]
	if !ok {
		printColor(colorYellow, "unknown task: "+os.Args[1])
		usage()
		os.Exit(1)
	}
	if err := task(); err != nil {
		printColor(colorRed, err.Error())
		os.Exit(1)
	}
}

func usage() {
	names := make([]string, 0, len(tasks))
	for k := range tasks {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Println("usage: go run ./scripts <task>")
	for _, n := range names {
		fmt.Println("  " + n)
	}
}
