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

// Command dev 以示範網路啟動本機 HTTP 服務，就緒後用瀏覽器開啟 decay 的 JSON 模擬結果。
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/zintix-labs/ssalab/demo"
	"github.com/zintix-labs/ssalab/server"
)

const (
	devAddr = "127.0.0.1:5808"
	devURL  = "http://" + devAddr + "/v1/sim?name=decay&seed=1&iterations=200&format=json"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scfg, err := demo.NewServerConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "demo server config:", err)
		os.Exit(1)
	}
	scfg.Addr = devAddr

	go func() {
		if err := waitForTCP(ctx, devAddr, 5*time.Second); err != nil {
			scfg.Log.Error("dev server not ready: " + err.Error())
			return
		}
		if err := openBrowser(devURL); err != nil {
			scfg.Log.Warn("open browser failed: " + err.Error())
		}
	}()

	if err := server.Run(ctx, scfg); err != nil {
		os.Exit(1)
	}
}

func waitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		d := net.Dialer{Timeout: 200 * time.Millisecond}
		if conn, err := d.DialContext(ctx, "tcp", addr); err == nil {
			return conn.Close()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return fmt.Errorf("timeout waiting for %s", addr)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
