package aar

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip returns a deflated zip archive holding entries in the given order.
func buildZip(t *testing.T, entries [][2]string) []byte {
	t.Helper()
	return buildZipMethod(t, zip.Deflate, entries)
}

func buildZipMethod(t *testing.T, method uint16, entries [][2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{Name: e[0], Method: method})
		require.NoError(t, err)
		_, err = f.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func readZip(t *testing.T, b []byte) map[string]string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		_ = rc.Close()
		out[f.Name] = string(data)
	}
	return out
}

func keys(m map[string]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeSoongAAR(t *testing.T, dir string) string {
	t.Helper()
	classes := buildZip(t, [][2]string{
		{"com/android/car/ui/Toolbar.class", "toolbar"},
		{"com/android/car/ui/R.class", "r"},
		{"com/android/car/ui/R$string.class", "rstring"},
		{"com/android/car/ui/Rating.class", "rating"},
		{"androidx/annotation/NonNull.class", "dep"},
	})
	aarBytes := buildZip(t, [][2]string{
		{"AndroidManifest.xml", "<manifest/>"},
		{"classes.jar", string(classes)},
		{"R.txt", "int string app_name 0x7f010001"},
	})
	p := filepath.Join(dir, "soong.aar")
	require.NoError(t, os.WriteFile(p, aarBytes, 0o644))
	return p
}

func writeRes(t *testing.T, root string, files map[string]string) string {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func TestSlim(t *testing.T) {
	dir := t.TempDir()
	soong := writeSoongAAR(t, dir)
	res1 := writeRes(t, filepath.Join(dir, "res1"), map[string]string{
		"values/strings.xml": "<resources>one</resources>",
		"values-en/ids":      "ids",
		"layout/toolbar.xml": "<LinearLayout/>",
		"stray-file-at-root": "ignored",
	})
	res2 := writeRes(t, filepath.Join(dir, "res2"), map[string]string{
		"values/strings.xml": "<resources>two</resources>",
	})
	out := filepath.Join(dir, "slim.aar")

	stats, err := Slim(Options{
		Output:           out,
		SoongAAR:         soong,
		ClassesAllowlist: "com/android/car/ui/",
		ResFolders:       []string{res1, res2},
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{ClassesKept: 2, ClassesDropped: 3, EntriesCopied: 2, Resources: 4}, stats)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	entries := readZip(t, b)
	assert.Equal(t, []string{
		"AndroidManifest.xml",
		"R.txt",
		"classes.jar",
		"res/layout/toolbar.xml",
		"res/values-en/ids1",
		"res/values/strings1.xml",
		"res/values/strings2.xml",
	}, keys(entries))
	assert.Equal(t, "<resources>one</resources>", entries["res/values/strings1.xml"])
	assert.Equal(t, "<resources>two</resources>", entries["res/values/strings2.xml"])
	assert.Equal(t, "<manifest/>", entries["AndroidManifest.xml"])

	classes := readZip(t, []byte(entries["classes.jar"]))
	assert.Equal(t, []string{"com/android/car/ui/Rating.class", "com/android/car/ui/Toolbar.class"}, keys(classes))
	assert.Equal(t, "toolbar", classes["com/android/car/ui/Toolbar.class"])
}

func TestSlimEntriesAreDeflated(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "slim.aar")
	_, err := Slim(Options{Output: out, SoongAAR: writeSoongAAR(t, dir), ClassesAllowlist: "com/"})
	require.NoError(t, err)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	require.NotEmpty(t, r.File)
	assert.Equal(t, "classes.jar", r.File[0].Name)
	for _, f := range r.File {
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
	}
}

func TestSlimRecompressesStoredEntries(t *testing.T) {
	dir := t.TempDir()
	classes := buildZipMethod(t, zip.Store, [][2]string{
		{"com/android/car/ui/Toolbar.class", "toolbar"},
	})
	soong := filepath.Join(dir, "stored.aar")
	require.NoError(t, os.WriteFile(soong, buildZipMethod(t, zip.Store, [][2]string{
		{"AndroidManifest.xml", "<manifest/>"},
		{"classes.jar", string(classes)},
		{"R.txt", "int string app_name 0x7f010001"},
	}), 0o644))
	out := filepath.Join(dir, "slim.aar")

	stats, err := Slim(Options{Output: out, SoongAAR: soong, ClassesAllowlist: "com/"})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EntriesCopied)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	r, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	for _, f := range r.File {
		assert.Equal(t, zip.Deflate, f.Method, f.Name)
	}
	entries := readZip(t, b)
	assert.Equal(t, "<manifest/>", entries["AndroidManifest.xml"])

	jar := []byte(entries["classes.jar"])
	jr, err := zip.NewReader(bytes.NewReader(jar), int64(len(jar)))
	require.NoError(t, err)
	require.Len(t, jr.File, 1)
	assert.Equal(t, zip.Deflate, jr.File[0].Method)
}

func TestSlimFollowsSymlinkedResourceDirs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	shared := writeRes(t, filepath.Join(dir, "shared"), map[string]string{
		"strings.xml": "<resources>shared</resources>",
	})
	res := filepath.Join(dir, "res")
	require.NoError(t, os.MkdirAll(res, 0o755))
	require.NoError(t, os.Symlink(shared, filepath.Join(res, "values")))
	out := filepath.Join(dir, "slim.aar")

	stats, err := Slim(Options{
		Output:           out,
		SoongAAR:         writeSoongAAR(t, dir),
		ClassesAllowlist: "com/",
		ResFolders:       []string{res},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Resources)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<resources>shared</resources>", readZip(t, b)["res/values/strings1.xml"])
}

func TestSlimRequiresAllowlist(t *testing.T) {
	_, err := Slim(Options{Output: filepath.Join(t.TempDir(), "out.aar"), SoongAAR: "in.aar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--classes-allowlist must not be empty")
}

func TestSlimRemovesOutputOnFailure(t *testing.T) {
	dir := t.TempDir()
	noClasses := buildZip(t, [][2]string{{"AndroidManifest.xml", "<manifest/>"}})
	soong := filepath.Join(dir, "broken.aar")
	require.NoError(t, os.WriteFile(soong, noClasses, 0o644))
	out := filepath.Join(dir, "out.aar")

	_, err := Slim(Options{Output: out, SoongAAR: soong, ClassesAllowlist: "com/"})
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial output should be removed")
}

func TestKeepClass(t *testing.T) {
	tests := []struct {
		name string
		keep bool
	}{
		{"com/android/car/ui/Toolbar.class", true},
		{"com/android/car/ui/Toolbar$Builder.class", true},
		{"com/android/car/ui/R.class", false},
		{"com/android/car/ui/R$id.class", false},
		{"com/android/car/ui/R$styleable$Inner.class", false},
		{"com/android/car/ui/RecyclerView.class", true},
		{"com/android/car/uix/Other.class", true},
		{"org/other/Foo.class", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.keep, KeepClass(tc.name, "com/android/car/ui"), tc.name)
	}
}

func TestIndexedName(t *testing.T) {
	assert.Equal(t, "strings3.xml", IndexedName("strings.xml", 3))
	assert.Equal(t, "ids1", IndexedName("ids", 1))
	assert.Equal(t, "a.png2", IndexedName("a.png", 2))
}
