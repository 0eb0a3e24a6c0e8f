// Package test holds helpers shared by package tests.
package test

import (
	"net"
	"strconv"
	"sync"
	"testing"
)

var (
	used = map[int]struct{}{}
	lock sync.Mutex
)

// FreeAddr returns a loopback address on a port that was free when the
// function was called. A port is never handed out twice in one process.
func FreeAddr(tb testing.TB) string {
	tb.Helper()
	for {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			tb.Fatalf("listen: %v", err)
		}
		port := l.Addr().(*net.TCPAddr).Port
		_ = l.Close()

		lock.Lock()
		_, taken := used[port]
		used[port] = struct{}{}
		lock.Unlock()

		if !taken {
			return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
		}
	}
}
