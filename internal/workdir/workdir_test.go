package workdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePackage(t *testing.T) string {
	t.Helper()
	pkg := filepath.Join(t.TempDir(), "MyLib")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "Examples"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "package.mo"), []byte("package MyLib\nend MyLib;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "Examples", "Pump.mo"), []byte("model Pump\nend Pump;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, ".git", "HEAD"), []byte("ref\n"), 0o644))
	return pkg
}

func TestCreateNamesDirectoryAfterPackage(t *testing.T) {
	pkg := makePackage(t)

	d, err := Create(pkg)
	require.NoError(t, err)
	defer d.Remove()

	assert.Equal(t, "MyLib", filepath.Base(d.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(d.Root), prefix))
}

func TestCreateRejectsMissingPackage(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestCreateRejectsFilePackage(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.mo")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err := Create(f)
	require.Error(t, err)
}

func TestPopulateSkipsVersionControl(t *testing.T) {
	pkg := makePackage(t)

	d, err := Create(pkg)
	require.NoError(t, err)
	defer d.Remove()
	require.NoError(t, d.Populate())

	assert.FileExists(t, filepath.Join(d.Path, "package.mo"))
	assert.FileExists(t, filepath.Join(d.Path, "Examples", "Pump.mo"))
	assert.NoDirExists(t, filepath.Join(d.Path, ".git"))
}

func TestRemoveGuard(t *testing.T) {
	d := &Dir{Root: t.TempDir(), Path: t.TempDir()}
	err := d.Remove()
	require.ErrorIs(t, err, ErrUnsafeDelete)
	assert.DirExists(t, d.Root)
}

func TestRemoveDeletesRoot(t *testing.T) {
	pkg := makePackage(t)
	d, err := Create(pkg)
	require.NoError(t, err)
	require.NoError(t, d.Populate())

	require.NoError(t, d.Remove())
	assert.NoDirExists(t, d.Root)
}

func TestCollectNewFiles(t *testing.T) {
	pkg := makePackage(t)
	d, err := Create(pkg)
	require.NoError(t, err)
	defer d.Remove()
	require.NoError(t, d.Populate())

	cutoff := time.Now()
	// Backdate the copied inputs so only the "simulation output" is new.
	old := cutoff.Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(d.Path, "package.mo"), old, old))
	require.NoError(t, os.Chtimes(filepath.Join(d.Path, "Examples", "Pump.mo"), old, old))

	// File mtimes come from a tick-resolution kernel clock that can lag
	// time.Now(); wait a tick so the new file stamps at or after cutoff.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(d.Path, "Pump_result.mat"), []byte("mat"), 0o644))

	out := t.TempDir()
	files, err := d.CollectNewFiles(cutoff, out)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, "Pump_result.mat", filepath.Base(files[0]))
	assert.FileExists(t, filepath.Join(out, "Pump_result.mat"))
}

func TestDeleteFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dsin.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Pump_result.mat"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.mo"), []byte("x"), 0o644))

	err := DeleteFiles(dir, []string{"dsin.txt", "*_result.mat", "missing.txt"})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "dsin.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "Pump_result.mat"))
	assert.FileExists(t, filepath.Join(dir, "keep.mo"))
}

func TestRemoveStale(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	stale := filepath.Join(tmp, prefix+username()+"-dead")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	other := filepath.Join(tmp, "unrelated")
	require.NoError(t, os.MkdirAll(other, 0o755))

	removed, err := RemoveStale()
	require.NoError(t, err)

	require.Len(t, removed, 1)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, other)
}
