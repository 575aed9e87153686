package worker

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dmagro/probewall/internal/linebuf"
)

const (
	terminateGrace = 5 * time.Second
	killGrace      = 5 * time.Second
	minWaitGrace   = 250 * time.Millisecond
)

// Worker owns one configured probe's run-forever loop: run once, sleep
// interval, repeat, until the sink reports shutdown (§4.3).
type Worker struct {
	ID        string
	BasePath  string
	Argv      []string
	Interval  time.Duration
	Timeout   time.Duration
	Processor Factory
}

// Run loops forever, calling sink for every event of every run, sleeping
// Interval between runs. It returns when the sink signals shutdown, or when
// the sink fails to accept an AbnormalTermination event.
func (w *Worker) Run(sink EventSink) {
	for {
		err := w.runOnce(sink)
		if err != nil {
			if err == ErrShuttingDown {
				return
			}
			log.Warn().Str("monitor", w.ID).Err(err).Msg("probe run failed")
			if sendErr := sink.AbnormalTermination(err.Error()); sendErr != nil {
				return
			}
		}
		time.Sleep(w.Interval)
	}
}

func (w *Worker) runOnce(sink EventSink) error {
	if err := sink.Starting(); err != nil {
		return err
	}

	if len(w.Argv) == 0 {
		return fmt.Errorf("no command configured")
	}

	cmd := exec.Command(w.Argv[0], w.Argv[1:]...)
	cmd.Dir = w.BasePath
	cmd.Env = append(os.Environ(), "STYLUS_MONITOR_ID="+w.ID)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var processor Processor
	if w.Processor != nil {
		processor = w.Processor()
	}

	stdoutBuf := linebuf.New(100)
	stderrBuf := linebuf.New(100)

	type chunk struct {
		stream Stream
		data   []byte
		err    error
	}
	chunks := make(chan chunk, 16)
	readPipe := func(stream Stream, r io.Reader) {
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				cp := make([]byte, n)
				copy(cp, buf[:n])
				chunks <- chunk{stream: stream, data: cp}
			}
			if err != nil {
				chunks <- chunk{stream: stream, err: err}
				return
			}
		}
	}
	go readPipe(Stdout, stdoutPipe)
	go readPipe(Stderr, stderrPipe)

	start := time.Now()
	eofSeen := map[Stream]bool{}
	deadline := time.After(w.Timeout)

	sendFailed := error(nil)
	deliver := func(stream Stream, line string) {
		if sendFailed != nil {
			return
		}
		trimmed := strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(trimmed, metaPrefix) {
			directive := strings.TrimSpace(strings.TrimPrefix(trimmed, metaPrefix))
			if e := sink.Meta(directive); e != nil {
				sendFailed = e
			}
			return
		}
		if processor != nil {
			for _, directive := range processor.ProcessMessage(trimmed) {
				if e := sink.Meta(directive); e != nil {
					sendFailed = e
					return
				}
			}
		}
		if e := sink.LogLine(stream, line); e != nil {
			sendFailed = e
		}
	}

readLoop:
	for {
		select {
		case c := <-chunks:
			if c.err != nil {
				eofSeen[c.stream] = true
				if eofSeen[Stdout] && eofSeen[Stderr] {
					break readLoop
				}
				continue
			}
			switch c.stream {
			case Stdout:
				stdoutBuf.Accept(c.data, func(l string) { deliver(Stdout, l) })
			case Stderr:
				stderrBuf.Accept(c.data, func(l string) { deliver(Stderr, l) })
			}
			if sendFailed != nil {
				break readLoop
			}
		case <-deadline:
			break readLoop
		}
	}

	stdoutBuf.Close(func(l string) { deliver(Stdout, l) })
	stderrBuf.Close(func(l string) { deliver(Stderr, l) })

	if processor != nil {
		for _, directive := range processor.Finalize() {
			if sendFailed == nil {
				if e := sink.Meta(directive); e != nil {
					sendFailed = e
				}
			}
		}
	}

	if sendFailed != nil {
		// Drain the pipes so the goroutines can't leak, then surface the
		// sink's own error (ErrShuttingDown propagates to the run loop).
		go io.Copy(io.Discard, stdoutPipe)
		go io.Copy(io.Discard, stderrPipe)
		_ = cmd.Wait()
		return sendFailed
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	remaining := w.Timeout - time.Since(start)
	if remaining < minWaitGrace {
		remaining = minWaitGrace
	}
	result := aggressivelyWaitForDeath(w.ID, cmd, waitDone, remaining)

	switch {
	case result.wedged:
		if err := sink.AbnormalTermination("Process timed out"); err != nil {
			return err
		}
		return nil
	case result.abnormal != "":
		return sink.AbnormalTermination(result.abnormal)
	default:
		return sink.Terminated(result.code)
	}
}

type deathResult struct {
	code     int64
	abnormal string
	wedged   bool
}

// aggressivelyWaitForDeath mirrors the original's wait -> terminate ->
// kill -> abandon ladder (§4.3, §9 timeouts): give the process `duration`
// to exit on its own, then 5s after a terminate signal, then 5s after a
// kill signal, then give up and report it wedged.
func aggressivelyWaitForDeath(id string, cmd *exec.Cmd, waitDone chan error, duration time.Duration) deathResult {
	select {
	case <-waitDone:
		return exitResult(cmd)
	case <-time.After(duration):
	}

	log.Info().Str("monitor", id).Msg("terminating wedged process")
	_ = cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-waitDone:
		return deathResult{abnormal: "Process exited with signal 1"}
	case <-time.After(terminateGrace):
	}

	log.Info().Str("monitor", id).Msg("killing wedged process")
	_ = cmd.Process.Kill()

	select {
	case <-waitDone:
		return deathResult{abnormal: "Process exited with signal 9"}
	case <-time.After(killGrace):
	}

	incident := uuid.New().String()
	log.Error().Str("monitor", id).Str("incident", incident).Msg("process wedged, abandoning")
	return deathResult{wedged: true}
}

func exitResult(cmd *exec.Cmd) deathResult {
	ps := cmd.ProcessState
	if ps == nil {
		return deathResult{abnormal: "Process exited for unknown reason"}
	}
	code := ps.ExitCode()
	if code < 0 {
		return deathResult{abnormal: "Process exited for unknown reason"}
	}
	return deathResult{code: int64(code)}
}
