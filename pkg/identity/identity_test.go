package identity

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/k8s-leaselock/pkg/system"
)

func TestNamespaceFromServiceAccountFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "namespace")
	require.NoError(t, os.WriteFile(path, []byte("platform-system\n"), 0o600))

	orig := namespaceFile
	namespaceFile = path
	t.Cleanup(func() { namespaceFile = orig })

	assert.Equal(t, "platform-system", Namespace())
}

func TestNamespaceFallsBackToDefault(t *testing.T) {
	orig := namespaceFile
	namespaceFile = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { namespaceFile = orig })

	assert.Equal(t, "default", Namespace())
}

func TestNamespaceEmptyFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "namespace")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	orig := namespaceFile
	namespaceFile = path
	t.Cleanup(func() { namespaceFile = orig })

	assert.Equal(t, "default", Namespace())
}

func TestNewUsesPodNameAndWorkerID(t *testing.T) {
	t.Setenv("POD_NAME", "leaselock-abc123")
	t.Setenv("WORKER_ID", "3")

	id := New(system.NewTestLogger())
	assert.Equal(t, "leaselock-abc123-3", id)
}

func TestNewFallsBackToHostnameAndPid(t *testing.T) {
	t.Setenv("POD_NAME", "")
	t.Setenv("HOSTNAME", "")
	t.Setenv("WORKER_ID", "")

	id := New(system.NewTestLogger())
	assert.NotEmpty(t, id)
	assert.Contains(t, id, strconv.Itoa(os.Getpid()))
}

func TestNewIsStableWithinProcess(t *testing.T) {
	t.Setenv("POD_NAME", "leaselock-abc123")
	t.Setenv("WORKER_ID", "7")

	assert.Equal(t, New(system.NewTestLogger()), New(system.NewTestLogger()))
}
