package launcher

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// maxStderrBufferSize caps the stderr kept for error reports. Lines past the
// cap still reach the callback.
const maxStderrBufferSize = 64 * 1024

// maxStderrLineLength splits lines longer than this into several callbacks.
const maxStderrLineLength = 64 * 1024

// stderrWaitDelay is how long Wait keeps reading stderr after the server
// exits. A background child of the server may hold the pipe open forever.
const stderrWaitDelay = 200 * time.Millisecond

// Exit is the terminal status of a server process.
type Exit struct {
	// Code is the exit code, or -1 if the process was killed by a signal
	// or could not be waited on.
	Code int

	// Err is the error returned by the wait, nil for a zero exit.
	Err error

	// At is when the exit was observed.
	At time.Time
}

// ChildProcess implements Process for a server started by Launcher.
type ChildProcess struct {
	log            *slog.Logger
	cmd            *exec.Cmd
	stderrCallback func(string)
	stderrLines    *lineWriter

	stderrMu  sync.Mutex
	stderrBuf strings.Builder

	exitOnce sync.Once
	exit     Exit
	done     chan struct{}
}

// Compile-time verification that ChildProcess implements Process.
var _ Process = (*ChildProcess)(nil)

// newChildProcess prepares cmd for supervision before it is started:
// stderr is split into lines and Wait returns at most stderrWaitDelay after
// the process exits, whoever else holds the pipe.
func newChildProcess(log *slog.Logger, cmd *exec.Cmd, stderrCallback func(string)) *ChildProcess {
	p := &ChildProcess{
		log:            log,
		cmd:            cmd,
		stderrCallback: stderrCallback,
		done:           make(chan struct{}),
	}

	p.stderrLines = &lineWriter{line: p.recordStderr}
	cmd.Stderr = p.stderrLines
	cmd.WaitDelay = stderrWaitDelay

	return p
}

// PID returns the operating system process ID.
func (p *ChildProcess) PID() int {
	return p.cmd.Process.Pid
}

// Done returns a channel that is closed once the process has exited.
func (p *ChildProcess) Done() <-chan struct{} {
	return p.done
}

// Exit returns the exit status and true once the process has exited.
func (p *ChildProcess) Exit() (Exit, bool) {
	select {
	case <-p.done:
		return p.exit, true
	default:
		return Exit{}, false
	}
}

// Wait blocks until the process exits or ctx is cancelled.
func (p *ChildProcess) Wait(ctx context.Context) (Exit, error) {
	select {
	case <-p.done:
		return p.exit, nil
	case <-ctx.Done():
		return Exit{}, ctx.Err()
	}
}

// Stderr returns the buffered stderr output.
func (p *ChildProcess) Stderr() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()

	return strings.TrimSpace(p.stderrBuf.String())
}

// Terminate requests a graceful shutdown, waits up to grace, then kills.
func (p *ChildProcess) Terminate(ctx context.Context, grace time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	p.log.Debug("Requesting server termination", "grace", grace)

	if err := terminate(p.cmd.Process); err != nil {
		p.log.Debug("Termination signal failed, killing", "error", err)
	} else {
		timer := time.NewTimer(grace)
		defer timer.Stop()

		select {
		case <-p.done:
			return nil
		case <-timer.C:
			p.log.Warn("Server did not exit within grace period, killing")
		case <-ctx.Done():
		}
	}

	if err := signalProcess(p.cmd.Process, os.Kill); err != nil {
		return fmt.Errorf("kill server process (pid %d): %w", p.PID(), err)
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// watch reaps the process and resolves the exit future. It is the only
// caller of cmd.Wait.
//
// The exit is resolved from the process status alone. Output still queued
// in the stderr pipe is read for at most stderrWaitDelay after the exit.
func (p *ChildProcess) watch() {
	err := p.cmd.Wait()
	p.stderrLines.Flush()

	if stderrors.Is(err, exec.ErrWaitDelay) {
		p.log.Debug("Stderr still held open after exit, stopped reading")

		err = nil
	}

	exit := Exit{Err: err, At: time.Now()}

	switch {
	case err == nil:
		exit.Code = 0
	default:
		exit.Code = -1

		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			exit.Code = exitErr.ExitCode()
		}
	}

	if exit.Code == 0 {
		p.log.Info("Server process exited")
	} else {
		p.log.Warn("Server process exited with error", "exit_code", exit.Code, "error", err)
	}

	p.exitOnce.Do(func() {
		p.exit = exit
		close(p.done)
	})
}

// recordStderr buffers one stderr line and forwards it to the callback.
func (p *ChildProcess) recordStderr(line string) {
	p.stderrMu.Lock()

	if p.stderrBuf.Len() < maxStderrBufferSize {
		if p.stderrBuf.Len() > 0 {
			p.stderrBuf.WriteString("\n")
		}

		p.stderrBuf.WriteString(line)
	}

	p.stderrMu.Unlock()

	if p.stderrCallback != nil {
		p.stderrCallback(line)
	}
}

// lineWriter splits written bytes into lines. exec.Cmd copies the stderr
// pipe into it from a single goroutine; the mutex covers Flush.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	line func(string)
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, b...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}

		w.line(string(bytes.TrimSuffix(w.buf[:i], []byte("\r"))))
		w.buf = append(w.buf[:0], w.buf[i+1:]...)
	}

	if len(w.buf) >= maxStderrLineLength {
		w.line(string(w.buf))
		w.buf = w.buf[:0]
	}

	return len(b), nil
}

// Flush emits a trailing line that had no newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.line(string(bytes.TrimSuffix(w.buf, []byte("\r"))))
		w.buf = w.buf[:0]
	}
}

// signalProcess sends sig to a process, returning nil if the process
// has already exited.
func signalProcess(proc *os.Process, sig os.Signal) error {
	err := proc.Signal(sig)
	if stderrors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}
