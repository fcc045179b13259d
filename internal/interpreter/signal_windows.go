// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package interpreter

import (
	"os"
	"os/signal"

	"golang.org/x/sys/windows"
)

// NotifyInterrupt is signal_unix.go's counterpart: Windows delivers Ctrl+C
// as a console control event rather than a POSIX signal number, but
// os/signal.Notify already normalizes it to the portable os.Interrupt the
// Go runtime synthesizes for CTRL_C_EVENT — referencing
// windows.CTRL_C_EVENT here documents, in code, which underlying console
// event this is translating into a pending KeyboardInterrupt.
var _ = windows.CTRL_C_EVENT

func NotifyInterrupt(in *Interpreter) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
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
