// Package seed installs the pre-populated database image shipped inside the binary,
// so a fresh install has content before any network call succeeds.
package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/versemate/offlinestore/internal/config"
)

//go:embed assets
var embeddedAssets embed.FS

// ErrNoBundledSeed is returned when the binary was built without a seed image.
var ErrNoBundledSeed = errors.New("no bundled seed database")

// Installer copies the bundled image to the writable database path on first run.
type Installer struct {
	assets   fs.FS
	name     string
	cacheDir string
	target   string
}

// Option configures an Installer.
type Option func(*Installer)

// WithAssets replaces the embedded assets, mostly for tests.
func WithAssets(assets fs.FS, name string) Option {
	return func(i *Installer) {
		i.assets = assets
		i.name = name
	}
}

// NewInstaller creates an installer that writes to target, materializing the
// bundled image into cacheDir first.
func NewInstaller(target, cacheDir string, opts ...Option) *Installer {
	i := &Installer{
		assets:   embeddedAssets,
		name:     "assets/" + config.SeedFileName,
		cacheDir: cacheDir,
		target:   target,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// HasBundledSeed reports whether a seed image is available.
func (i *Installer) HasBundledSeed() bool {
	_, err := fs.Stat(i.assets, i.name)
	return err == nil
}

// InstallIfAbsent copies the seed image to the target path unless a database
// already exists there. An existing file is never overwritten.
func (i *Installer) InstallIfAbsent(ctx context.Context) error {
	if _, err := os.Stat(i.target); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat database: %w", err)
	}

	if !i.HasBundledSeed() {
		return ErrNoBundledSeed
	}

	cached, err := i.materialize(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(i.target), 0755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	src, err := os.Open(cached)
	if err != nil {
		return fmt.Errorf("open cached seed: %w", err)
	}
	defer src.Close()

	written, err := copyAtomic(ctx, src, i.target)
	if err != nil {
		return fmt.Errorf("install seed: %w", err)
	}
	log.Printf("[SEED] Installed bundled database at %s (%d bytes)", i.target, written)
	return nil
}

// materialize writes the bundled image into the cache directory and returns its path.
func (i *Installer) materialize(ctx context.Context) (string, error) {
	info, err := fs.Stat(i.assets, i.name)
	if err != nil {
		return "", fmt.Errorf("stat bundled seed: %w", err)
	}

	cached := filepath.Join(i.cacheDir, filepath.Base(i.name))
	if st, err := os.Stat(cached); err == nil && st.Size() == info.Size() {
		return cached, nil
	}

	if err := os.MkdirAll(i.cacheDir, 0755); err != nil {
		return "", fmt.Errorf("create seed cache dir: %w", err)
	}

	src, err := i.assets.Open(i.name)
	if err != nil {
		return "", fmt.Errorf("open bundled seed: %w", err)
	}
	defer src.Close()

	if _, err := copyAtomic(ctx, src, cached); err != nil {
		return "", fmt.Errorf("materialize seed: %w", err)
	}
	return cached, nil
}

// copyAtomic writes src to a temp file next to dst and renames it into place, so
// an interrupted copy never leaves a truncated database behind.
func copyAtomic(ctx context.Context, src io.Reader, dst string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src})
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return 0, err
	}
	return written, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
