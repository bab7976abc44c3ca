package game

import (
	"context"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"
	"github.com/pkg/errors"
	"github.com/stackotter/delta-client-sub000/engine/util"
)

// FetchResources makes source available as a directory below cacheDir.
// source may be a local directory, an archive such as a zipped resource
// pack, or any URL go-getter understands (git::, s3::, http).
func FetchResources(ctx context.Context, source, cacheDir string) (string, error) {
	if source == "" {
		return "", errors.New("empty resource source")
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "resolving working directory")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", cacheDir)
	}
	dst, err := os.MkdirTemp(cacheDir, "resources-")
	if err != nil {
		return "", errors.Wrap(err, "creating resource directory")
	}
	// the file getter links directories and refuses existing destinations
	dst = filepath.Join(dst, "content")

	client := &getter.Client{
		Ctx:  ctx,
		Src:  source,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}
	util.LogIOInfo("fetching resources", "source", source, "dir", dst)
	if err := client.Get(); err != nil {
		return "", errors.Wrapf(err, "fetching %s", source)
	}
	return dst, nil
}
