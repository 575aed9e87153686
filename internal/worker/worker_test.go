package worker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	started  int
	lines    []string
	metas    []string
	term     *int64
	abnormal *string
}

func (s *recordingSink) Starting() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return nil
}

func (s *recordingSink) LogLine(stream Stream, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	return nil
}

func (s *recordingSink) Meta(directive string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metas = append(s.metas, directive)
	return nil
}

func (s *recordingSink) Terminated(code int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term = &code
	return nil
}

func (s *recordingSink) AbnormalTermination(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abnormal = &reason
	return nil
}

func TestRunOnceSuccess(t *testing.T) {
	w := &Worker{
		ID:       "t",
		BasePath: t.TempDir(),
		Argv:     []string{"/bin/sh", "-c", "echo hello; exit 0"},
		Timeout:  2 * time.Second,
	}
	sink := &recordingSink{}
	err := w.runOnce(sink)
	require.NoError(t, err)
	require.NotNil(t, sink.term)
	assert.Equal(t, int64(0), *sink.term)
	assert.Contains(t, sink.lines, "hello\n")
}

func TestRunOnceExitCode(t *testing.T) {
	w := &Worker{
		ID:       "t",
		BasePath: t.TempDir(),
		Argv:     []string{"/bin/sh", "-c", "exit 3"},
		Timeout:  2 * time.Second,
	}
	sink := &recordingSink{}
	err := w.runOnce(sink)
	require.NoError(t, err)
	require.NotNil(t, sink.term)
	assert.Equal(t, int64(3), *sink.term)
}

func TestRunOnceTimeoutReportsAbnormalTermination(t *testing.T) {
	w := &Worker{
		ID:       "t",
		BasePath: t.TempDir(),
		Argv:     []string{"/bin/sleep", "10"},
		Timeout:  250 * time.Millisecond,
	}
	sink := &recordingSink{}
	err := w.runOnce(sink)
	require.NoError(t, err)
	require.NotNil(t, sink.abnormal)
}

func TestMetaPrefixRoutedAsDirective(t *testing.T) {
	w := &Worker{
		ID:       "t",
		BasePath: t.TempDir(),
		Argv:     []string{"/bin/sh", "-c", "echo '@@STYLUS@@ status.status=\"green\"'"},
		Timeout:  2 * time.Second,
	}
	sink := &recordingSink{}
	err := w.runOnce(sink)
	require.NoError(t, err)
	require.Contains(t, sink.metas, `status.status="green"`)
	assert.Empty(t, sink.lines)
}

type stubProcessor struct {
	seen []string
}

func (p *stubProcessor) ProcessMessage(line string) []string {
	p.seen = append(p.seen, line)
	return nil
}

func (p *stubProcessor) Finalize() []string {
	return []string{`status.metadata.count="1"`}
}

func TestProcessorFinalizeEmitsMeta(t *testing.T) {
	proc := &stubProcessor{}
	w := &Worker{
		ID:        "t",
		BasePath:  t.TempDir(),
		Argv:      []string{"/bin/sh", "-c", "echo line-one"},
		Timeout:   2 * time.Second,
		Processor: func() Processor { return proc },
	}
	sink := &recordingSink{}
	err := w.runOnce(sink)
	require.NoError(t, err)
	assert.Contains(t, proc.seen, "line-one")
	assert.Contains(t, sink.metas, `status.metadata.count="1"`)
}

type shutdownSink struct{ recordingSink }

func (s *shutdownSink) Starting() error { return ErrShuttingDown }

func TestRunReturnsOnShutdownSentinel(t *testing.T) {
	w := &Worker{
		ID:       "t",
		BasePath: t.TempDir(),
		Argv:     []string{"/bin/sh", "-c", "echo hi"},
		Interval: time.Millisecond,
		Timeout:  time.Second,
	}
	done := make(chan struct{})
	go func() {
		w.Run(&shutdownSink{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after shutdown sentinel")
	}
}
