package build

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmartiSamia/deploykit/pkg/detect"
	"github.com/AmartiSamia/deploykit/pkg/errors"
)

func TestRunSkipsNonJVMKinds(t *testing.T) {
	inv := NewWithRunner(func(_ context.Context, _, _ string, _ ...string) ([]byte, error) {
		t.Fatal("runner should not be invoked for kinds without a prebuild")
		return nil, nil
	})

	for _, kind := range []detect.Kind{detect.KindNode, detect.KindPython, detect.KindStatic} {
		require.NoError(t, inv.Run(context.Background(), kind, t.TempDir()))
	}
}

func TestRunJVMInvokesMaven(t *testing.T) {
	var gotDir, gotName string
	var gotArgs []string
	inv := NewWithRunner(func(_ context.Context, dir, name string, args ...string) ([]byte, error) {
		gotDir, gotName, gotArgs = dir, name, args
		return []byte("BUILD SUCCESS"), nil
	})

	dir := t.TempDir()
	require.NoError(t, inv.Run(context.Background(), detect.KindJVM, dir))

	assert.Equal(t, dir, gotDir)
	assert.Equal(t, "mvn", gotName)
	assert.Equal(t, []string{"-B", "-DskipTests", "clean", "package"}, gotArgs)
}

func TestRunJVMFailureIsFatal(t *testing.T) {
	inv := NewWithRunner(func(_ context.Context, _, _ string, _ ...string) ([]byte, error) {
		return []byte("compilation error"), fmt.Errorf("exit status 1")
	})

	err := inv.Run(context.Background(), detect.KindJVM, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeBuild, errors.CodeOf(err))

	var se *errors.StructuredError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Context["output"], "compilation error")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail([]byte("abc"), 10))
	assert.Equal(t, "cde", tail([]byte("abcde"), 3))
}
