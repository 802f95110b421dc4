package shim_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tom-the-Bomb/brainfuck-go/shim"
)

func writeBundle(t *testing.T, configJSON string, scripts ...string) string {
	t.Helper()
	bundle := t.TempDir()
	rootfs := filepath.Join(bundle, "rootfs")
	require.NoError(t, os.Mkdir(rootfs, 0o755))
	for _, name := range scripts {
		require.NoError(t, os.WriteFile(filepath.Join(rootfs, name), []byte("+."), 0o644))
	}
	if configJSON != "" {
		configJSON = os.Expand(configJSON, func(key string) string {
			if key == "ROOT" {
				return rootfs
			}
			return ""
		})
		require.NoError(t, os.WriteFile(filepath.Join(bundle, "config.json"), []byte(configJSON), 0o644))
	}
	return bundle
}

func TestReadConfig(t *testing.T) {
	bundle := writeBundle(t, `{"root":{"path":"$ROOT"},"process":{"args":["hello.bf"]}}`, "hello.bf")
	config, err := shim.ReadConfig(bundle)
	require.NoError(t, err)
	assert.Equal(t, "hello.bf", config.Entrypoint)
	assert.Equal(t, filepath.Join(config.Root, "hello.bf"), config.ScriptPath())
}

func TestReadConfig_MissingFile(t *testing.T) {
	bundle := writeBundle(t, "")
	_, err := shim.ReadConfig(bundle)
	assert.ErrorContains(t, err, "not found")
}

func TestReadConfig_MissingRoot(t *testing.T) {
	bundle := writeBundle(t, `{"process":{"args":["hello.bf"]}}`)
	_, err := shim.ReadConfig(bundle)
	assert.ErrorContains(t, err, "root path")
}

func TestReadConfig_WrongArgCount(t *testing.T) {
	bundle := writeBundle(t, `{"root":{"path":"$ROOT"},"process":{"args":["a.bf","b.bf"]}}`)
	_, err := shim.ReadConfig(bundle)
	assert.ErrorContains(t, err, "number of args")
}

func TestReadConfig_NotABrainfuckScript(t *testing.T) {
	bundle := writeBundle(t, `{"root":{"path":"$ROOT"},"process":{"args":["hello.sh"]}}`, "hello.sh")
	_, err := shim.ReadConfig(bundle)
	assert.ErrorContains(t, err, "not a .bf file")
}

func TestReadConfig_ScriptMissing(t *testing.T) {
	bundle := writeBundle(t, `{"root":{"path":"$ROOT"},"process":{"args":["gone.bf"]}}`)
	_, err := shim.ReadConfig(bundle)
	assert.ErrorContains(t, err, "does not exist")
}
