// Copyright 2024 The AgentFS Authors.
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

// Package logger provides AgentFS's structured logging: a slog.Handler
// backed by an asynchronous writer so a slow or momentarily-blocked log
// sink (rotating file, pipe) never stalls the filesystem op it is
// logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncLogger decouples writers from the underlying io.WriteCloser by
// handing each Write off to a background goroutine over a bounded
// channel. A caller that would block the filesystem hot path on a slow
// sink instead risks a dropped log line, never a stall.
type AsyncLogger struct {
	out io.WriteCloser

	msgs chan []byte
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewAsyncLogger starts the background writer goroutine and returns a
// logger that queues up to bufferSize pending writes to out before it
// starts dropping them.
func NewAsyncLogger(out io.WriteCloser, bufferSize int) *AsyncLogger {
	l := &AsyncLogger{
		out:  out,
		msgs: make(chan []byte, bufferSize),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for b := range l.msgs {
		if _, err := l.out.Write(b); err != nil {
			fmt.Fprintf(os.Stderr, "asynclogger: write failed: %v\n", err)
		}
	}
}

// Write copies p and enqueues it for the background writer. It never
// blocks on a full buffer; instead it drops the message and reports the
// drop to stderr, since the alternative is blocking whatever op on the
// hot path happened to be logging.
func (l *AsyncLogger) Write(p []byte) (n int, err error) {
	b := make([]byte, len(p))
	copy(b, p)

	select {
	case l.msgs <- b:
	default:
		fmt.Fprintln(os.Stderr, "asynclogger: log buffer is full, dropping message.")
	}
	return len(p), nil
}

// Close stops accepting writes, drains the queue into the underlying
// writer, and closes it. It is safe to call more than once.
func (l *AsyncLogger) Close() error {
	l.closeOnce.Do(func() {
		close(l.msgs)
		<-l.done
		l.closeErr = l.out.Close()
	})
	return l.closeErr
}
