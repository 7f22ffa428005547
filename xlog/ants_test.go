package xlog

import (
	"sync"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestAntsXLogger_ParentLogLevelChanged(t *testing.T) {
	var logger *AntsXLogger = nil
	logger.Printf("test %d", 123)
	require.Nil(t, NewAntsXLogger(nil))

	parentLogger, w := newTestMemLogger(t,
		WithXLoggerLevel(LogLevelDebug),
		WithXLoggerTimeEncoder(zapcore.ISO8601TimeEncoder),
		WithXLoggerLevelEncoder(zapcore.CapitalLevelEncoder),
	)
	logger = NewAntsXLogger(parentLogger)
	logger.Printf("test %d", 123)
	lines := w.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, "ants", lines[0]["component"])
	require.Equal(t, "ERROR", lines[0]["lvl"])
	require.Equal(t, "test 123", lines[0]["msg"])

	parentLogger.IncreaseLogLevel(zapcore.InfoLevel)
	parentLogger.Debug("abc")
	logger.Printf("test %d", 456)
	require.Len(t, w.lines(t), 1)
	_ = parentLogger.Sync()
}

func TestAntsXLogger_AntsPool(t *testing.T) {
	parentLogger, w := newTestMemLogger(t, WithXLoggerLevel(LogLevelDebug))
	logger := NewAntsXLogger(parentLogger)

	p, err := antsv2.NewPool(10, antsv2.WithLogger(logger))
	require.NoError(t, err)
	defer p.Release()

	wg := sync.WaitGroup{}
	wg.Add(2)
	err = p.Submit(func() {
		defer wg.Done()
		parentLogger.Logf(LogLevelDebug.zapLevel(), "test %d", 123)
	})
	require.NoError(t, err)
	err = p.Submit(func() {
		defer wg.Done()
		panic("xlogger panic in ants pool")
	})
	require.NoError(t, err)
	wg.Wait()
	time.Sleep(100 * time.Millisecond)
	_ = parentLogger.Sync()
	require.GreaterOrEqual(t, len(w.lines(t)), 2)
}
