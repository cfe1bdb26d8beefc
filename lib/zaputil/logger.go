package zaputil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewConsoleLogger returns development console logger, that writes error
// stacktraces extracted by NewStackExtractCore.
func NewConsoleLogger(level zapcore.LevelEnabler, out zapcore.WriteSyncer) *zap.Logger {
	conf := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(conf), out, level)
	return zap.New(NewStackExtractCore(core), zap.AddCaller(), zap.AddStacktrace(zap.DPanicLevel))
}
