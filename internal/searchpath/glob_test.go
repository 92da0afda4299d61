package searchpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moduleNames(mods []Module) []string {
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		names = append(names, m.Name)
	}
	return names
}

func TestGlob(t *testing.T) {
	primary := mkdir(t, t.TempDir(), "pkg")
	outer := mkfile(t, primary, "rag/store.go")
	mkfile(t, primary, "pkg/rag/store.go")
	mkfile(t, primary, "pkg/rag/retriever.go")
	mkfile(t, primary, "pkg/rag/notes.txt")
	mkfile(t, primary, ".git/config")

	sp, err := New("pkg", primary)
	require.NoError(t, err)
	sp.SetExtensions(".go")
	sp.MergeNested()

	mods, err := sp.Glob("rag.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"rag.retriever", "rag.store"}, moduleNames(mods))
	assert.Equal(t, outer, mods[1].Path, "first directory wins")
	assert.Equal(t, primary, mods[1].Dir)
}

func TestGlob_SeparatorAware(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a/b/c")
	mkfile(t, root, "a/d")

	sp, err := New("pkg", root)
	require.NoError(t, err)

	mods, err := sp.Glob("a.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b", "a.d"}, moduleNames(mods))

	mods, err = sp.Glob("a.**")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b", "a.b.c", "a.d"}, moduleNames(mods))
}

func TestGlob_MissingRootSkipped(t *testing.T) {
	sp, err := New("pkg", t.TempDir()+"/missing")
	require.NoError(t, err)

	mods, err := sp.Glob("**")
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestGlob_BadPattern(t *testing.T) {
	sp, err := New("pkg", t.TempDir())
	require.NoError(t, err)

	_, err = sp.Glob("[")
	assert.Error(t, err)
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		rel   string
		dir   bool
		exts  []string
		want  string
		match bool
	}{
		{"rag", true, []string{".go"}, "rag", true},
		{"rag/store.go", false, []string{".go"}, "rag.store", true},
		{"rag/store.txt", false, []string{".go"}, "", false},
		{"README", false, []string{""}, "README", true},
		{"README.md", false, []string{""}, "", false},
		{"has.dot", true, []string{""}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, ok := moduleName(tt.rel, tt.dir, tt.exts)
			assert.Equal(t, tt.match, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlob_AgreesWithResolve(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "x/inner.py")
	file := mkfile(t, root, "x.py")

	sp, err := New("pkg", root)
	require.NoError(t, err)
	sp.SetExtensions(".py", "")

	resolved, err := sp.Resolve("x")
	require.NoError(t, err)
	assert.Equal(t, file, resolved)

	mods, err := sp.Glob("x")
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, resolved, mods[0].Path, "extension order decides within a directory")
	assert.Equal(t, root, mods[0].Dir)
}
