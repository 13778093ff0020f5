package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferLogger(t *testing.T, format string) (*zap.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", Format: format, DisableTimestamp: true}, zapcore.AddSync(buf))
	require.NoError(t, err)
	return lg, buf
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestJSONFormat(t *testing.T) {
	lg, buf := newBufferLogger(t, "json")
	lg.Info("exported", FieldMessage("Person"), FieldOp(3))
	out := buf.String()
	assert.Contains(t, out, `"message":"exported"`)
	assert.Contains(t, out, `"message_type":"Person"`)
	assert.Contains(t, out, `"op":3`)
	assert.NotContains(t, out, `"time"`)
}

func TestConsoleFormat(t *testing.T) {
	lg, buf := newBufferLogger(t, "")
	lg.Warn("decode failed", FieldModule("protomap"))
	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "decode failed")
	assert.Contains(t, out, "protomap")
}

func TestFileLog(t *testing.T) {
	dir := t.TempDir()
	lg, _, err := InitLogger(&Config{
		Level:  "info",
		Format: "json",
		File:   FileLogConfig{RootPath: dir, Filename: "protomap.log"},
	})
	require.NoError(t, err)
	lg.Debug("hidden")
	lg.Info("visible")
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "protomap.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
	assert.NotContains(t, string(data), "hidden")
}

func TestFileLogDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	_, _, err := InitLogger(&Config{Level: "info", File: FileLogConfig{RootPath: dir, Filename: "sub"}})
	assert.Error(t, err)
}

func TestCtxFields(t *testing.T) {
	lg, buf := newBufferLogger(t, "json")
	ctx := context.WithValue(context.Background(), CtxLogKey, &MLogger{Logger: lg})
	ctx = WithSeq(ctx, 7, 42)
	ctx = WithModule(ctx, "codec")

	Ctx(ctx).Info("frame")
	out := buf.String()
	assert.Contains(t, out, `"op":7`)
	assert.Contains(t, out, `"seq":42`)
	assert.Contains(t, out, `"module":"codec"`)

	assert.NotNil(t, Ctx(context.Background()))
	//nolint:staticcheck
	assert.NotNil(t, Ctx(nil))
}

func TestRatedWarn(t *testing.T) {
	lg, buf := newBufferLogger(t, "json")
	ml := (&MLogger{Logger: lg}).WithRateGroup(t.Name(), 0.0001, 1)

	assert.True(t, ml.RatedWarn(1, "first"))
	assert.False(t, ml.RatedWarn(1, "second"))
	assert.Contains(t, buf.String(), "first")
	assert.NotContains(t, buf.String(), "second")
}

func TestMLoggerWith(t *testing.T) {
	lg, buf := newBufferLogger(t, "json")
	ml := (&MLogger{Logger: lg}).With(FieldComponent("router"))
	ml.Info("routed")
	assert.Contains(t, buf.String(), `"component":"router"`)
}

func TestBinder(t *testing.T) {
	var b Binder
	assert.NotNil(t, b.Logger())

	lg, buf := newBufferLogger(t, "json")
	b.SetLogger(&MLogger{Logger: lg})
	b.Logger().Info("bound")
	assert.Contains(t, buf.String(), "bound")
}

func TestLevel(t *testing.T) {
	old := GetLevel()
	defer SetLevel(old)

	SetLevel(zapcore.ErrorLevel)
	assert.Equal(t, zapcore.ErrorLevel, GetLevel())
	assert.Equal(t, zapcore.ErrorLevel, Level().Level())
}

func TestInitTestLogger(t *testing.T) {
	lg, props, err := InitTestLogger(t, &Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, props.Level.Level())
	lg.Debug("from test logger")
}

func TestCallerPosition(t *testing.T) {
	dir := t.TempDir()
	lg, props, err := InitLogger(&Config{
		Level:  "debug",
		Format: "json",
		File:   FileLogConfig{RootPath: dir, Filename: "caller.log"},
	})
	require.NoError(t, err)
	ReplaceGlobals(lg, props)
	defer func() {
		ReplaceGlobals(newStdLogger())
	}()

	_, _, line, _ := runtime.Caller(0)
	Ctx(context.Background()).Info("from ctx")
	Info("from global")
	Ctx(context.Background()).RatedInfo(0, "from rated")
	With(FieldComponent("codec")).Info("from with")
	require.NoError(t, Sync())

	data, err := os.ReadFile(filepath.Join(dir, "caller.log"))
	require.NoError(t, err)
	out := string(data)
	for i := 1; i <= 4; i++ {
		assert.Contains(t, out, `"caller":"log/log_test.go:`+strconv.Itoa(line+i)+`"`)
	}
}
