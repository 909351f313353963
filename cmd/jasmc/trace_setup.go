package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jasmc/internal/trace"
)

// tracing owns the tracer for one command run.
type tracing struct {
	tracer    trace.Tracer
	format    trace.Format
	heartbeat *trace.Heartbeat
	errOut    io.Writer
}

// setupTracing inspects trace-related flags and initializes the tracer.
// It returns the tracing handle and an error if initialization fails.
func setupTracing(cmd *cobra.Command) (*tracing, error) {
	root := cmd.Root()

	// Read trace configuration from flags
	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}

	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}

	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}

	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// If level is off and no output specified, skip tracing
	if level == trace.LevelOff && traceOutput == "" {
		cmd.SetContext(trace.WithTracer(ctx, trace.Nop))
		return &tracing{tracer: trace.Nop, errOut: cmd.ErrOrStderr()}, nil
	}
	if level == trace.LevelOff {
		level = trace.LevelPhase
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx = trace.WithTracer(ctx, tracer)
	cmd.SetContext(ctx)

	t := &tracing{tracer: tracer, format: format, errOut: cmd.ErrOrStderr()}
	if heartbeatInterval > 0 {
		t.heartbeat = trace.StartHeartbeat(ctx, tracer, heartbeatInterval)
	}
	return t, nil
}

// dumpRing writes the in-memory ring to stderr; called when a build fails.
func (t *tracing) dumpRing() {
	if t == nil {
		return
	}
	ring, ok := trace.Ring(t.tracer)
	if !ok {
		return
	}
	format := t.format
	if format == trace.FormatAuto {
		format = trace.FormatText
	}
	fmt.Fprintln(t.errOut, "trace: last events before failure")
	if err := ring.Dump(t.errOut, format); err != nil {
		fmt.Fprintf(t.errOut, "trace: dump error: %v\n", err)
	}
}

func (t *tracing) close() {
	if t == nil {
		return
	}
	// Stop heartbeat first
	if t.heartbeat != nil {
		t.heartbeat.Stop()
	}
	if err := t.tracer.Flush(); err != nil {
		fmt.Fprintf(t.errOut, "trace: flush error: %v\n", err)
	}
	if err := t.tracer.Close(); err != nil {
		fmt.Fprintf(t.errOut, "trace: close error: %v\n", err)
	}
}
