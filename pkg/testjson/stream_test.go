package testjson

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ctx context.Context, t *testing.T, r io.Reader) ([]TestEvent, int, error) {
	t.Helper()
	var got []TestEvent
	malformed, err := Stream(ctx, r, func(e TestEvent) { got = append(got, e) })
	return got, malformed, err
}

func TestStream_EventsInOrder(t *testing.T) {
	got, malformed, err := collect(t.Context(), t, strings.NewReader(events(
		`{"Action":"start","Package":"example.com/pkg"}`,
		`{"Action":"run","Package":"example.com/pkg","Test":"TestFoo"}`,
		"",
		`{"Action":"pass","Package":"example.com/pkg","Test":"TestFoo","Elapsed":0.01}`,
		`{"Action":"pass","Package":"example.com/pkg","Elapsed":0.5}`,
	)))
	require.NoError(t, err)
	assert.Zero(t, malformed, "blank lines are not malformed")
	require.Len(t, got, 4)
	assert.Equal(t, "start", got[0].Action)
	assert.Equal(t, "TestFoo", got[2].Test)
}

func TestStream_SkipsMalformedLines(t *testing.T) {
	got, malformed, err := collect(t.Context(), t, strings.NewReader(events(
		`{"Action":"run","Package":"x","Test":"T1"}`,
		`{CORRUPTED}`,
		`{"Action":"fail","Package":"x","Test":"T1","Elapsed":0.1}`,
		`not-json-at-all`,
		`{"Action":"fail","Package":"x","Elapsed":0.2}`,
	)))
	require.NoError(t, err)
	assert.Equal(t, 2, malformed)
	assert.Len(t, got, 3)
}

func TestStream_LineTooLong(t *testing.T) {
	long := `{"Action":"output","Package":"x","Output":"` + strings.Repeat("a", maxLine) + `"}`
	_, _, err := collect(t.Context(), t, strings.NewReader(long+"\n"))
	require.Error(t, err)
}

func TestStream_StopsWhenCancelled(t *testing.T) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = `{"Action":"start","Package":"p"}`
	}
	ctx, cancel := context.WithCancel(t.Context())
	var count int
	_, err := Stream(ctx, strings.NewReader(events(lines...)), func(TestEvent) {
		count++
		cancel()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, count, len(lines))
}

// blockingReader never returns from Read until closed, like a stalled pipe.
type blockingReader struct {
	done chan struct{}
}

func (b *blockingReader) Read([]byte) (int, error) {
	<-b.done
	return 0, io.EOF
}

func (b *blockingReader) Close() error {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
	return nil
}

func TestParse_CancelUnblocksReader(t *testing.T) {
	br := &blockingReader{done: make(chan struct{})}
	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := Parse(ctx, br)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Parse did not return after the deadline")
	}
}
