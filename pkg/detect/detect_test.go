package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  Kind
	}{
		{"node", []string{"package.json"}, KindNode},
		{"maven", []string{"pom.xml"}, KindJVM},
		{"gradle", []string{"build.gradle"}, KindJVM},
		{"python", []string{"requirements.txt"}, KindPython},
		{"static", []string{"index.html"}, KindStatic},
		{"empty tree", nil, KindStatic},
		{"unrecognized files", []string{"README.md", "Makefile"}, KindStatic},
		// First match wins: package.json beats every later marker.
		{"node beats python", []string{"requirements.txt", "package.json"}, KindNode},
		{"maven beats python", []string{"pom.xml", "requirements.txt"}, KindJVM},
		{"python beats static", []string{"index.html", "requirements.txt"}, KindPython},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f)
			}
			assert.Equal(t, tt.want, Detect(dir))
		})
	}
}

func TestDetectIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "package.json"), 0o755))
	assert.Equal(t, KindStatic, Detect(dir))
}

func TestDetectMissingDir(t *testing.T) {
	// A nonexistent tree still classifies, it never fails.
	assert.Equal(t, KindStatic, Detect(filepath.Join(t.TempDir(), "nope")))
}

func TestKindPorts(t *testing.T) {
	assert.Equal(t, int32(3000), KindNode.Port())
	assert.Equal(t, int32(8080), KindJVM.Port())
	assert.Equal(t, int32(8000), KindPython.Port())
	assert.Equal(t, int32(80), KindStatic.Port())
}

func TestNeedsPrebuild(t *testing.T) {
	assert.True(t, KindJVM.NeedsPrebuild())
	assert.False(t, KindNode.NeedsPrebuild())
	assert.False(t, KindPython.NeedsPrebuild())
	assert.False(t, KindStatic.NeedsPrebuild())
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindNode, ParseKind("node"))
	assert.Equal(t, KindStatic, ParseKind("cobol"))
	assert.Equal(t, KindStatic, ParseKind(""))
}
