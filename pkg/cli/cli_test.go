package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCapturingStdout runs a command with os.Stdout redirected to a pipe.
func runCapturingStdout(t *testing.T, args []string) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = orig })

	captured := make(chan string, 1)
	go func() {
		var b strings.Builder
		_, _ = io.Copy(&b, r)
		captured <- b.String()
	}()

	runErr := rootCmd().Run(t.Context(), args)

	require.NoError(t, w.Close())
	return <-captured, runErr
}

func TestDetectCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pom.xml"), []byte("<project/>"), 0o600))

	out, err := runCapturingStdout(t, []string{name, "detect", "--path", dir, "--format", "json"})
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "jvm"`)
	assert.Contains(t, out, `"port": 8080`)
	assert.Contains(t, out, `"prebuild": true`)
}

func TestDetectCmd_FallsBackToStatic(t *testing.T) {
	out, err := runCapturingStdout(t, []string{name, "detect", "--path", t.TempDir(), "--format", "json"})
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "static"`)
}

func TestDetectCmd_InvalidFormat(t *testing.T) {
	_, err := runCapturingStdout(t, []string{name, "detect", "--format", "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestManifestCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests.yaml")

	_, err := runCapturingStdout(t, []string{
		name, "manifest",
		"--project", "shop",
		"--kind", "node",
		"--image", "docker.io/acme/shop:7",
		"--output", path,
	})
	require.NoError(t, err)

	rendered, err := os.ReadFile(path)
	require.NoError(t, err)
	docs := strings.Split(string(rendered), "---\n")
	assert.Len(t, docs, 4)
	assert.Contains(t, string(rendered), "kind: Namespace")
	assert.Contains(t, string(rendered), "host: shop.deploy.local")
	assert.Contains(t, string(rendered), "image: docker.io/acme/shop:7")
}

func TestManifestCmd_InvalidKind(t *testing.T) {
	_, err := runCapturingStdout(t, []string{
		name, "manifest", "--project", "shop", "--kind", "cobol", "--image", "img:1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project kind")
}

func TestDeployCmd_MissingRequiredFlags(t *testing.T) {
	cmd := rootCmd()
	err := cmd.Run(t.Context(), []string{name, "deploy"})
	require.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCapturingStdout(t, []string{name, "version", "--format", "json"})
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "deploykit"`)
	assert.Contains(t, out, `"version": "dev"`)
}
