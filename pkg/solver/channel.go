// Package solver drives a candidate geodesic solver through its
// line-oriented request/response protocol.
package solver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
	"golang.org/x/sync/errgroup"
)

// Spec describes how to launch one solver process.
type Spec struct {
	Name string // used in logs and errors
	Path string
	Args []string
}

// Channel owns one solver conversation. Every request is written and
// flushed, then exactly one response line is read before Exchange returns;
// requests are never pipelined. A Channel is not safe for concurrent use.
type Channel struct {
	name   string
	w      *bufio.Writer
	r      *bufio.Reader
	stdin  io.Closer
	cmd    *exec.Cmd
	stderr *zapio.Writer
	logger *zap.Logger

	exchanges int
	buf       []byte
}

// NewChannel creates a channel that writes requests to w and reads
// responses from r. If w is an io.Closer it is closed by Close.
func NewChannel(name string, w io.Writer, r io.Reader, logger *zap.Logger) *Channel {
	c := &Channel{
		name:   name,
		w:      bufio.NewWriter(w),
		r:      bufio.NewReader(r),
		logger: logger.With(zap.String("solver", name)),
	}
	if wc, ok := w.(io.Closer); ok {
		c.stdin = wc
	}
	return c
}

// Start launches the solver described by spec. The process is killed if
// ctx is cancelled. Its stderr is forwarded to logger line by line.
func Start(ctx context.Context, spec Spec, logger *zap.Logger) (*Channel, error) {
	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Path: spec.Path, Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Path: spec.Path, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	c := NewChannel(spec.Name, stdin, stdout, logger)
	c.stderr = &zapio.Writer{Log: c.logger.Named("stderr"), Level: zap.WarnLevel}
	cmd.Stderr = c.stderr

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: spec.Path, Err: err}
	}
	c.cmd = cmd

	c.logger.Info("Started solver",
		zap.String("path", spec.Path),
		zap.Strings("args", spec.Args),
		zap.Int("pid", cmd.Process.Pid))
	return c, nil
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// Exchanges returns the number of completed exchanges.
func (c *Channel) Exchanges() int { return c.exchanges }

// Exchange sends req and blocks for its response.
func (c *Channel) Exchange(req Request) (Response, error) {
	n := c.exchanges

	c.buf = req.AppendLine(c.buf[:0])
	if _, err := c.w.Write(c.buf); err != nil {
		return nil, c.violation(n, fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
	if err := c.w.Flush(); err != nil {
		return nil, c.violation(n, fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return nil, c.violation(n, fmt.Errorf("%w: unterminated line %q", ErrSolverClosed, line))
			}
			return nil, c.violation(n, ErrSolverClosed)
		}
		return nil, c.violation(n, fmt.Errorf("read response: %w", err))
	}

	resp, err := ParseResponse(line)
	if err != nil {
		return nil, c.violation(n, err)
	}

	if ce := c.logger.Check(zap.DebugLevel, "Exchange"); ce != nil {
		ce.Write(
			zap.Int("exchange", n),
			zap.Stringer("request", req),
			zap.Float64s("response", resp))
	}
	c.exchanges++
	return resp, nil
}

func (c *Channel) violation(n int, err error) error {
	return &ProtocolError{Solver: c.name, Exchange: n, Err: err}
}

// Close ends the conversation by closing the solver's input and, for a
// process, waits for it to exit.
func (c *Channel) Close() error {
	var closeErr error
	if c.stdin != nil {
		closeErr = c.stdin.Close()
	}
	if c.cmd == nil {
		return closeErr
	}

	err := c.cmd.Wait()
	_ = c.stderr.Close()
	if err != nil {
		return fmt.Errorf("solver %s: %w", c.name, err)
	}
	c.logger.Debug("Solver exited", zap.Int("exchanges", c.exchanges))
	return nil
}

// Pool closes a set of channels together.
type Pool struct {
	channels []*Channel
}

// Add registers c with the pool.
func (p *Pool) Add(c *Channel) {
	p.channels = append(p.channels, c)
}

// Close closes every channel concurrently and returns the first error.
func (p *Pool) Close() error {
	var g errgroup.Group
	for _, c := range p.channels {
		g.Go(c.Close)
	}
	return g.Wait()
}
