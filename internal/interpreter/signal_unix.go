// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package interpreter

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// NotifyInterrupt arranges for SIGINT delivered to this process to set
// in.Thread's pending-interrupt flag (spec.md §5: "a blocking primitive
// checks for pending signals and raises KeyboardInterrupt at the next
// instruction boundary"). The returned stop func cancels the notification;
// an embedder's Enter/Run call should defer it.
//
// os/signal.Notify already hands back a portable os.Signal, so the unix
// build constant is used only to state, in code rather than only in a
// comment, which numeric signal this package is translating — the same
// reach-into-x/sys-for-a-platform-fact pattern cmd/dist uses rather than
// hardcoding the signal number.
func NotifyInterrupt(in *Interpreter) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.Signal(unix.SIGINT))
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				in.Thread.RequestInterrupt()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
