package solver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

// fakeSolver runs handle for every request line in a goroutine and writes
// whatever it returns. When handle returns false the fake then closes its
// output and drains the rest of its input.
func fakeSolver(t *testing.T, handle func(line string) (string, bool)) (*Channel, <-chan struct{}) {
	t.Helper()
	reqR, reqW := io.Pipe()
	respR, respW := io.Pipe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer respW.Close()
		scanner := bufio.NewScanner(reqR)
		for scanner.Scan() {
			out, ok := handle(scanner.Text())
			if out != "" {
				if _, err := fmt.Fprint(respW, out); err != nil {
					return
				}
			}
			if !ok {
				respW.Close()
				_, _ = io.Copy(io.Discard, reqR)
				return
			}
		}
	}()

	return NewChannel("fake", reqW, respR, zaptest.NewLogger(t)), done
}

func TestChannelLockStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	var seen []string
	c, done := fakeSolver(t, func(line string) (string, bool) {
		seen = append(seen, line)
		return fmt.Sprintf("%d 0 0\n", len(seen)), true
	})

	for i := 1; i <= 3; i++ {
		resp, err := c.Exchange(Request{float64(i), 2, 3, 4})
		require.NoError(t, err)
		require.Equal(t, Response{float64(i), 0, 0}, resp)
	}
	require.Equal(t, 3, c.Exchanges())

	require.NoError(t, c.Close())
	<-done
	require.Equal(t, []string{"1 2 3 4", "2 2 3 4", "3 2 3 4"}, seen)
}

func TestChannelSolverClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, done := fakeSolver(t, func(string) (string, bool) { return "", false })

	_, err := c.Exchange(Request{0, 0, 90, 1})
	require.ErrorIs(t, err, ErrSolverClosed)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "fake", pe.Solver)
	require.Equal(t, 0, pe.Exchange)

	require.NoError(t, c.Close())
	<-done
}

func TestChannelUnterminatedLine(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	c, done := fakeSolver(t, func(string) (string, bool) {
		calls++
		if calls == 1 {
			return "1 2 3\n", true
		}
		return "4 5", false
	})

	_, err := c.Exchange(Request{0})
	require.NoError(t, err)

	// The fake writes a partial line and then closes: the partial line must
	// not be accepted as a response.
	_, err = c.Exchange(Request{0})
	require.ErrorIs(t, err, ErrSolverClosed)
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 1, pe.Exchange)

	require.NoError(t, c.Close())
	<-done
}

func TestChannelMalformedResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, done := fakeSolver(t, func(string) (string, bool) {
		return "ERROR: bad input\n", true
	})

	_, err := c.Exchange(Request{1, 2, 3, 4})
	require.ErrorIs(t, err, ErrMalformedResponse)

	require.NoError(t, c.Close())
	<-done
}

func TestChannelWriteFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	reqR, reqW := io.Pipe()
	require.NoError(t, reqR.Close())
	c := NewChannel("broken", reqW, strings.NewReader(""), zaptest.NewLogger(t))

	_, err := c.Exchange(Request{1, 2, 3, 4})
	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.NoError(t, c.Close())
}

func TestStartSpawnFailure(t *testing.T) {
	_, err := Start(context.Background(), Spec{Name: "missing", Path: "/nonexistent/GeodSolve"}, zaptest.NewLogger(t))
	var se *SpawnError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "/nonexistent/GeodSolve", se.Path)
}

func TestStartProcess(t *testing.T) {
	cat, err := exec.LookPath("cat")
	if err != nil {
		t.Skip("cat not available")
	}
	defer goleak.VerifyNone(t)

	// cat echoes each request back, which is a valid 4-field short
	// direct response.
	c, err := Start(context.Background(), Spec{Name: "cat", Path: cat}, zaptest.NewLogger(t))
	require.NoError(t, err)

	resp, err := c.Exchange(Request{1.5, 2.5, 3.5, 4.5})
	require.NoError(t, err)
	ep, err := Short.Direct(resp)
	require.NoError(t, err)
	require.Equal(t, 1.5, ep.Lat)
	require.Equal(t, 4.5, ep.M12)

	require.NoError(t, c.Close())
}

func TestStartProcessExitsEarly(t *testing.T) {
	trueBin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}
	defer goleak.VerifyNone(t)

	c, err := Start(context.Background(), Spec{Name: "true", Path: trueBin}, zaptest.NewLogger(t))
	require.NoError(t, err)

	// Depending on timing the request either lands in the pipe buffer or
	// hits a closed pipe; both are protocol violations.
	_, err = c.Exchange(Request{0, 0, 90, 1})
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)

	_ = c.Close()
}

func TestPoolClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	var pool Pool
	var dones []<-chan struct{}
	for i := 0; i < 3; i++ {
		c, done := fakeSolver(t, func(string) (string, bool) { return "0 0 0\n", true })
		_, err := c.Exchange(Request{0})
		require.NoError(t, err)
		pool.Add(c)
		dones = append(dones, done)
	}

	require.NoError(t, pool.Close())
	for _, done := range dones {
		<-done
	}
}
