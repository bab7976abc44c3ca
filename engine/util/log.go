package util

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

type LogLevel int32

const (
	LogLevelError LogLevel = 1 << iota
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

type LogCategory int32

const (
	LogVoxel LogCategory = 1 << iota
	LogNetwork
	LogMesh
	LogSystem
	LogIO
	LogTextures

	LogAll = LogVoxel | LogNetwork | LogMesh | LogSystem | LogIO | LogTextures
)

var (
	globalLogLevel      atomic.Int32
	globalLogCategories atomic.Int32
	globalLogger        atomic.Pointer[slog.Logger]
)

func init() {
	globalLogLevel.Store(int32(LogLevelInfo))
	globalLogCategories.Store(int32(LogAll))
	globalLogger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

// SetLogger replaces the backing slog logger. Level and category gating still happens here,
// so the handler should accept every level.
func SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	globalLogger.Store(logger)
}

func SetLogLevel(level LogLevel) {
	globalLogLevel.Store(int32(level))
}

func SetLogCategories(categories LogCategory) {
	globalLogCategories.Store(int32(categories))
}

func ParseLogLevel(name string) (LogLevel, bool) {
	switch name {
	case "error":
		return LogLevelError, true
	case "warning", "warn":
		return LogLevelWarning, true
	case "info":
		return LogLevelInfo, true
	case "debug":
		return LogLevelDebug, true
	}
	return LogLevelInfo, false
}

func ParseLogCategory(name string) (LogCategory, bool) {
	switch name {
	case "voxel":
		return LogVoxel, true
	case "network":
		return LogNetwork, true
	case "mesh":
		return LogMesh, true
	case "system":
		return LogSystem, true
	case "io":
		return LogIO, true
	case "textures":
		return LogTextures, true
	case "all":
		return LogAll, true
	}
	return 0, false
}

func (c LogCategory) String() string {
	switch c {
	case LogVoxel:
		return "voxel"
	case LogNetwork:
		return "network"
	case LogMesh:
		return "mesh"
	case LogSystem:
		return "system"
	case LogIO:
		return "io"
	case LogTextures:
		return "textures"
	}
	return "mixed"
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelError:
		return slog.LevelError
	case LogLevelWarning:
		return slog.LevelWarn
	case LogLevelDebug:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func logEnabled(cat LogCategory, lvl LogLevel) bool {
	if lvl > LogLevel(globalLogLevel.Load()) {
		return false
	}
	return LogCategory(globalLogCategories.Load())&cat != 0
}

func log(cat LogCategory, lvl LogLevel, txt string, attrs ...any) {
	if !logEnabled(cat, lvl) {
		return
	}
	logger := globalLogger.Load().With("category", cat.String())
	logger.Log(context.Background(), lvl.slogLevel(), txt, attrs...)
}

func LogVoxelInfo(txt string, attrs ...any) {
	log(LogVoxel, LogLevelInfo, txt, attrs...)
}

func LogVoxelDebug(txt string, attrs ...any) {
	log(LogVoxel, LogLevelDebug, txt, attrs...)
}

func LogVoxelWarning(txt string, attrs ...any) {
	log(LogVoxel, LogLevelWarning, txt, attrs...)
}

func LogVoxelError(txt string, attrs ...any) {
	log(LogVoxel, LogLevelError, txt, attrs...)
}

func LogNetworkInfo(txt string, attrs ...any) {
	log(LogNetwork, LogLevelInfo, txt, attrs...)
}

func LogNetworkDebug(txt string, attrs ...any) {
	log(LogNetwork, LogLevelDebug, txt, attrs...)
}

func LogNetworkWarning(txt string, attrs ...any) {
	log(LogNetwork, LogLevelWarning, txt, attrs...)
}

func LogNetworkError(txt string, attrs ...any) {
	log(LogNetwork, LogLevelError, txt, attrs...)
}

func LogMeshInfo(txt string, attrs ...any) {
	log(LogMesh, LogLevelInfo, txt, attrs...)
}

func LogMeshDebug(txt string, attrs ...any) {
	log(LogMesh, LogLevelDebug, txt, attrs...)
}

func LogMeshWarning(txt string, attrs ...any) {
	log(LogMesh, LogLevelWarning, txt, attrs...)
}

func LogMeshError(txt string, attrs ...any) {
	log(LogMesh, LogLevelError, txt, attrs...)
}

func LogSystemInfo(txt string, attrs ...any) {
	log(LogSystem, LogLevelInfo, txt, attrs...)
}

func LogSystemError(txt string, attrs ...any) {
	log(LogSystem, LogLevelError, txt, attrs...)
}

func LogIOInfo(txt string, attrs ...any) {
	log(LogIO, LogLevelInfo, txt, attrs...)
}

func LogIOError(txt string, attrs ...any) {
	log(LogIO, LogLevelError, txt, attrs...)
}

func LogTextureDebug(txt string, attrs ...any) {
	log(LogTextures, LogLevelDebug, txt, attrs...)
}

func LogTextureWarning(txt string, attrs ...any) {
	log(LogTextures, LogLevelWarning, txt, attrs...)
}
