package savefile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Name of the log file for a run started at the given time
func LogFileName(app string, started time.Time) string {
	return fmt.Sprintf("%s-%s.txt", app, started.Format("2006-01-02-15-04-05"))
}

// Build a debug level logger writing to both stderr and a fresh log file in
// dir. Returns the logger, the absolute log path, and a func that flushes
// and closes the file
func NewLogger(dir string, app string) (*zap.Logger, string, func(), error) {
	if dir == "" {
		dir = "."
	}
	path, err := filepath.Abs(filepath.Join(dir, LogFileName(app, time.Now())))
	if err != nil {
		return nil, "", nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", nil, err
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	fileConfig := zap.NewProductionEncoderConfig()
	fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stderr), zapcore.DebugLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(file), zapcore.DebugLevel),
	)
	logger := zap.New(core)
	closer := func() {
		_ = logger.Sync()
		file.Close()
	}
	return logger, path, closer, nil
}
