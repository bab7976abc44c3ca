package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchResourcesFromDirectory(t *testing.T) {
	source := t.TempDir()
	texture := filepath.Join("assets", "minecraft", "textures", "block")
	if err := os.MkdirAll(filepath.Join(source, texture), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(source, texture, "stone.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err := FetchResources(context.Background(), source, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, texture, "stone.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "png" {
		t.Errorf("fetched %q", data)
	}
}

func TestFetchResourcesErrors(t *testing.T) {
	if _, err := FetchResources(context.Background(), "", t.TempDir()); err == nil {
		t.Error("expected an error for an empty source")
	}
	missing := filepath.Join(t.TempDir(), "missing")
	if _, err := FetchResources(context.Background(), missing, t.TempDir()); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
