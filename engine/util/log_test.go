package util

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := globalLogger.Load()
	level, categories := LogLevel(globalLogLevel.Load()), LogCategory(globalLogCategories.Load())
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		SetLogger(previous)
		SetLogLevel(level)
		SetLogCategories(categories)
	})
	return &buf
}

func TestLogGating(t *testing.T) {
	tests := []struct {
		name       string
		level      LogLevel
		categories LogCategory
		log        func()
		logged     bool
	}{
		{"warning at info", LogLevelInfo, LogAll, func() { LogMeshWarning("w") }, true},
		{"debug at info", LogLevelInfo, LogAll, func() { LogMeshDebug("d") }, false},
		{"debug at debug", LogLevelDebug, LogAll, func() { LogVoxelDebug("d") }, true},
		{"error at error", LogLevelError, LogAll, func() { LogNetworkError("e") }, true},
		{"info at error", LogLevelError, LogAll, func() { LogSystemInfo("i") }, false},
		{"category off", LogLevelDebug, LogMesh, func() { LogNetworkError("e") }, false},
		{"category on", LogLevelDebug, LogMesh | LogIO, func() { LogIOError("e") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			SetLogLevel(tt.level)
			SetLogCategories(tt.categories)
			tt.log()
			if got := buf.Len() > 0; got != tt.logged {
				t.Errorf("logged = %v, want %v: %q", got, tt.logged, buf.String())
			}
		})
	}
}

func TestLogAttributes(t *testing.T) {
	buf := captureLogs(t)
	SetLogLevel(LogLevelDebug)
	SetLogCategories(LogAll)
	LogTextureWarning("missing texture", "texture", "minecraft:block/stone")

	out := buf.String()
	for _, want := range []string{"level=WARN", "category=textures", `msg="missing texture"`, "texture=minecraft:block/stone"} {
		if !strings.Contains(out, want) {
			t.Errorf("%q missing from %q", want, out)
		}
	}
}

func TestParseLogNames(t *testing.T) {
	for _, name := range []string{"error", "warning", "warn", "info", "debug"} {
		if _, ok := ParseLogLevel(name); !ok {
			t.Errorf("level %q not parsed", name)
		}
	}
	if _, ok := ParseLogLevel("verbose"); ok {
		t.Error("unknown level parsed")
	}
	for _, category := range []LogCategory{LogVoxel, LogNetwork, LogMesh, LogSystem, LogIO, LogTextures} {
		got, ok := ParseLogCategory(category.String())
		if !ok || got != category {
			t.Errorf("category %v round trip gave %v", category, got)
		}
	}
	if got, _ := ParseLogCategory("all"); got != LogAll {
		t.Errorf("all = %b", got)
	}
}
