package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the deployment logger writing console-formatted entries
// to w. Colors are left off so the log file and viewport stay plain text.
// Logger.Sync reaches w.Sync.
func newLogger(w zapcore.WriteSyncer, level zapcore.Level, runID string) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, level)
	return zap.New(core).With(zap.String("run", runID))
}
