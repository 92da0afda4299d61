package searchpath

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mkfile creates path (and its parents) under root.
func mkfile(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
	return path
}

func mkdir(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(path, 0o755))
	return path
}

func TestNew(t *testing.T) {
	root := t.TempDir()

	sp, err := New("pkg", root, root+"/", filepath.Join(root, ".", "sub", ".."))
	require.NoError(t, err)

	assert.Equal(t, []string{root}, sp.Dirs(), "equivalent roots collapse to one entry")
	assert.Equal(t, root, sp.Primary())
	assert.Equal(t, "pkg", sp.Name())
}

func TestNew_InvalidName(t *testing.T) {
	for _, name := range []string{"", "a/b", "a.b", "..", "9lives"} {
		_, err := New(name, t.TempDir())
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	_, err := New("pkg")
	assert.Error(t, err, "at least one root is required")
}

func TestMergeNested_CandidateExists(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	nested := mkdir(t, primary, "pkg")

	sp, err := New("pkg", primary)
	require.NoError(t, err)

	candidate, ok := sp.MergeNested()
	require.True(t, ok)
	assert.Equal(t, nested, candidate)
	assert.Equal(t, []string{primary, nested}, sp.Dirs())
}

func TestMergeNested_Idempotent(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	nested := mkdir(t, primary, "pkg")

	sp, err := New("pkg", primary)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sp.MergeNested()
	}

	count := 0
	for _, d := range sp.Dirs() {
		if d == nested {
			count++
		}
	}
	assert.Equal(t, 1, count, "nested directory must appear exactly once")
	assert.Equal(t, 2, sp.Len())
}

func TestMergeNested_CandidateMissing(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")

	sp, err := New("pkg", primary)
	require.NoError(t, err)
	before := sp.Len()

	_, ok := sp.MergeNested()
	assert.False(t, ok)
	assert.Equal(t, before, sp.Len())
}

func TestMergeNested_CandidateIsFile(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	mkfile(t, primary, "pkg")

	sp, err := New("pkg", primary)
	require.NoError(t, err)

	_, ok := sp.MergeNested()
	assert.False(t, ok)
	assert.Equal(t, 1, sp.Len())
}

func TestExtend(t *testing.T) {
	siteA := t.TempDir()
	siteB := t.TempDir()
	siteC := t.TempDir()
	primary := mkdir(t, siteA, "pkg")
	second := mkdir(t, siteB, "pkg")
	// siteC provides nothing

	sp, err := New("pkg", primary)
	require.NoError(t, err)

	added := sp.Extend(siteA, siteB, siteC, siteB)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{primary, second}, sp.Dirs())

	assert.Equal(t, 0, sp.Extend(siteB), "second extension adds nothing")
}

func TestPrepend(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()

	sp, err := New("pkg", a)
	require.NoError(t, err)

	assert.True(t, sp.Prepend(b))
	assert.False(t, sp.Prepend(b))
	assert.False(t, sp.Prepend(a))
	assert.Equal(t, []string{b, a}, sp.Dirs())
	assert.Equal(t, a, sp.Primary(), "prepending does not move the primary directory")
}

func TestResolve_NestedLayout(t *testing.T) {
	// pkg/ is the outer directory, pkg/pkg/module lives one level down.
	primary := mkdir(t, t.TempDir(), "pkg")
	want := mkfile(t, primary, "pkg/module.go")

	sp, err := New("pkg", primary)
	require.NoError(t, err)
	sp.SetExtensions(".go")

	_, err = sp.Resolve("module")
	require.ErrorIs(t, err, ErrModuleNotFound, "not resolvable before merging")

	sp.MergeNested()
	got, err := sp.Resolve("module")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolve_FlatLayoutUnaffected(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	want := mkfile(t, primary, "module.go")

	sp, err := New("pkg", primary)
	require.NoError(t, err)
	sp.SetExtensions(".go")
	sp.MergeNested()

	got, err := sp.Resolve("module")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, sp.Len())
}

func TestResolve_FirstMatchWins(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	outer := mkfile(t, primary, "rag/store.go")
	mkfile(t, primary, "pkg/rag/store.go")
	inner := mkfile(t, primary, "pkg/rag/retriever.go")

	sp, err := New("pkg", primary)
	require.NoError(t, err)
	sp.SetExtensions(".go")
	sp.MergeNested()

	got, err := sp.Resolve("rag.store")
	require.NoError(t, err)
	assert.Equal(t, outer, got)

	got, err = sp.Resolve("rag.retriever")
	require.NoError(t, err)
	assert.Equal(t, inner, got)
}

func TestResolve_ExtensionOrder(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "conf.yml")
	yaml := mkfile(t, root, "conf.yaml")
	dataDir := mkdir(t, root, "data")
	mkfile(t, root, "data.yaml")

	sp, err := New("pkg", root)
	require.NoError(t, err)
	sp.SetExtensions(".yaml", ".yml", "")

	got, err := sp.Resolve("conf")
	require.NoError(t, err)
	assert.Equal(t, yaml, got)

	sp.SetExtensions("", ".yaml")
	got, err = sp.Resolve("data")
	require.NoError(t, err)
	assert.Equal(t, dataDir, got, "empty extension matches directories")
}

func TestResolve_InvalidModule(t *testing.T) {
	sp, err := New("pkg", t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", ".", "a..b", "..", "a./b", "a/b", "a.b."} {
		_, err := sp.Resolve(name)
		assert.ErrorIs(t, err, ErrInvalidModule, name)
	}
}

func TestResolveOrPrimary(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	nestedData := mkdir(t, primary, "pkg/data/chroma")

	sp, err := New("pkg", primary)
	require.NoError(t, err)

	got, err := sp.ResolveOrPrimary("data.chroma")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(primary, "data", "chroma"), got, "falls back to primary before merging")

	sp.MergeNested()
	got, err = sp.ResolveOrPrimary("data.chroma")
	require.NoError(t, err)
	assert.Equal(t, nestedData, got)

	_, err = sp.ResolveOrPrimary("bad..name")
	assert.ErrorIs(t, err, ErrInvalidModule)
}

func TestSearchPath_ConcurrentMerge(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	mkdir(t, primary, "pkg")

	sp, err := New("pkg", primary)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp.MergeNested()
			_, _ = sp.Resolve("anything")
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, sp.Len())
}
