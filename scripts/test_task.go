package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runTest 清掉 test cache 後跑全部測試，只顯示每個套件的 ok / FAIL 行
func runTest() error {
	printColor(colorGreen, "running tests")
	cleanCache()
	return goTest(func(line string) bool {
		return strings.HasPrefix(line, "ok") || strings.HasPrefix(line, "FAIL") ||
			strings.Contains(line, "build failed") || strings.Contains(line, "setup failed")
	}, "./...", "-cover", "-count=1")
}

// runTestAll 全部測試含 coverage，輸出不過濾
func runTestAll() error {
	printColor(colorGreen, "running tests (all with coverage)")
	cleanCache()
	cmd := exec.Command("go", "test", "./...", "-cover")
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.New("tests (with coverage) finished with errors")
	}
	return nil
}

// runTestDetail verbose 測試，過濾掉沒有測試檔的套件
func runTestDetail() error {
	printColor(colorGreen, "running tests (detail)")
	cleanCache()
	return goTest(func(line string) bool {
		return !strings.Contains(line, "[no test files]")
	}, "./...", "-v", "-count=1")
}

// runGoldenUpdate 重新產生 engine 的 golden 軌跡（演算法或輸出格式變更後使用）
func runGoldenUpdate() error {
	printColor(colorYellow, "updating golden trajectories")
	cmd := exec.Command("go", "test", "./engine", "-run", "Golden", "-update", "-count=1")
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return cmd.Run()
}

func cleanCache() {
	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		printColor(colorRed, "go clean -testcache: "+err.Error())
	}
}

// goTest 合併 stdout/stderr，keep 為 true 的行才印出（ok 綠、FAIL 紅）
func goTest(keep func(string) bool, args ...string) error {
	cmd := exec.Command("go", append([]string{"test"}, args...)...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go test: %w", err)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case !keep(line):
		case strings.HasPrefix(line, "ok"):
			printColor(colorGreen, line)
		case strings.HasPrefix(line, "FAIL"):
			printColor(colorRed, line)
		default:
			fmt.Println(line)
		}
	}
	if err := cmd.Wait(); err != nil {
		return errors.New("tests finished with errors")
	}
	return nil
}
