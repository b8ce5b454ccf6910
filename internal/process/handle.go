package process

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

// stderr capture is capped so a chatty encoder cannot grow the diagnostic
// log without bound.
const maxDiagnosticBytes = 512 * 1024

// Handle owns one live external process. All methods are safe for
// concurrent use; exactly one goroutine consumes Wait's result via Exited.
type Handle struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *boundedBuffer

	done    chan struct{}
	exitErr error
}

// PID returns the operating system process identifier.
func (h *Handle) PID() int {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// WriteControl writes a control token to the process standard input. The
// recorder treats "p\n" as pause/resume toggle and "q\n" as graceful quit.
func (h *Handle) WriteControl(token string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stdin == nil {
		return errors.New("process has no control channel")
	}
	_, err := io.WriteString(h.stdin, token)
	return err
}

// Exited reports whether the process has terminated, and its exit error if
// so.
func (h *Handle) Exited() (bool, error) {
	select {
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return true, h.exitErr
	default:
		return false, nil
	}
}

// Running consults the OS process table. A handle whose waiter has finished
// is never reported as running regardless of PID reuse.
func (h *Handle) Running() bool {
	if exited, _ := h.Exited(); exited {
		return false
	}
	pid := h.PID()
	if pid <= 0 {
		return false
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		// Fall back to the waiter when the process table is unreadable.
		exited, _ := h.Exited()
		return !exited
	}
	return running
}

// Wait blocks until the process exits and returns its exit error.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

// Kill forcefully terminates the process. Safe to call after exit.
func (h *Handle) Kill() error {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	if exited, _ := h.Exited(); exited {
		return nil
	}
	return h.cmd.Process.Kill()
}

// Diagnostics returns the captured standard error text.
func (h *Handle) Diagnostics() string {
	if h == nil || h.stderr == nil {
		return ""
	}
	return h.stderr.String()
}

func (h *Handle) closeStdin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stdin != nil {
		_ = h.stdin.Close()
		h.stdin = nil
	}
}

// boundedBuffer keeps the first maxDiagnosticBytes of written data and
// silently discards the rest.
type boundedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := maxDiagnosticBytes - b.buf.Len()
	if remaining > 0 {
		if len(p) > remaining {
			b.buf.Write(p[:remaining])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
