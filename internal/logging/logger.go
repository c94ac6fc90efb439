// v1
// logger.go

package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures slog to log to both stdout and a size-rotated file under
// LOG_DIR. Rotation keeps the simulator runnable unattended without filling
// the disk.
func Init() *slog.Logger {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "./logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level()}))
		logger.Error("failed to create log dir; falling back to stdout only", "dir", logDir, "err", err)
		return logger
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "metersim.log"),
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}

	mw := io.MultiWriter(os.Stdout, rotated)
	h := slog.NewTextHandler(mw, &slog.HandlerOptions{Level: level()})
	logger := slog.New(h)

	// make legacy stdlib log align to our multi-writer too
	log.SetOutput(mw)

	logger.Info("logger initialized", "file", rotated.Filename)
	return logger
}

func level() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
