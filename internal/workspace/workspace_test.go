package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/serverless-sim/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(root string) config.AppConfig {
	return config.AppConfig{
		DataDir:    filepath.Join(root, "data"),
		BucketDir:  filepath.Join(root, "data", "s3", "uploads"),
		DBFile:     filepath.Join(root, "data", "db", "dynamodb_mock.json"),
		LogFile:    filepath.Join(root, "logs", "lambda_output.log"),
		SamplesDir: filepath.Join(root, "sample_files"),
	}
}

func TestEnsure_CreatesLayout(t *testing.T) {
	cfg := testConfig(t.TempDir())

	require.NoError(t, Ensure(cfg))

	assert.DirExists(t, cfg.BucketDir)
	db, err := os.ReadFile(cfg.DBFile)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(db))
	assert.FileExists(t, cfg.LogFile)

	sample, err := os.ReadFile(filepath.Join(cfg.SamplesDir, SampleName))
	require.NoError(t, err)
	assert.Equal(t, sampleContent, string(sample))
}

func TestEnsure_Idempotent(t *testing.T) {
	cfg := testConfig(t.TempDir())
	require.NoError(t, Ensure(cfg))
	require.NoError(t, os.WriteFile(cfg.DBFile, []byte(`[{"filename":"kept"}]`), 0o644))
	require.NoError(t, os.WriteFile(cfg.LogFile, []byte("[ts] kept\n"), 0o644))

	require.NoError(t, Ensure(cfg))

	db, err := os.ReadFile(cfg.DBFile)
	require.NoError(t, err)
	assert.Contains(t, string(db), "kept")
	logs, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Equal(t, "[ts] kept\n", string(logs))
}

func TestListSamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := ListSamples(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.csv")}, files)

	files, err = ListSamples(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
