// Package workspace lays out the local folders and files that stand in for the
// simulated services.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/andresuchdata/serverless-sim/internal/config"
)

const (
	SampleName    = "example.txt"
	sampleContent = "Hello from example.txt\nThis is a sample text file.\nLine 3.\n"
)

// Ensure creates the bucket, record store, log and samples locations. Existing
// files are left untouched so it is safe to call on every start.
func Ensure(cfg config.AppConfig) error {
	for _, dir := range []string{cfg.BucketDir, filepath.Dir(cfg.DBFile), filepath.Dir(cfg.LogFile), cfg.SamplesDir} {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	if err := writeIfMissing(cfg.DBFile, "[]"); err != nil {
		return err
	}
	if err := writeIfMissing(cfg.LogFile, ""); err != nil {
		return err
	}
	return writeIfMissing(filepath.Join(cfg.SamplesDir, SampleName), sampleContent)
}

// ListSamples returns the regular files in dir sorted by name.
func ListSamples(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read samples dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
