package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilePathUsesXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	require.Equal(t, filepath.Join(tmp, "locsync", "auth.json"), FilePath())
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	require.Empty(t, Load())

	require.NoError(t, SetAPIKey("cloud", "apikey123456"))
	require.NoError(t, SetAPIKey("groq", "gsk_abcdef"))

	info, err := os.Stat(FilePath())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.Equal(t, "apikey123456", GetAPIKey("cloud"))

	require.NoError(t, SetAPIKey("cloud", "rotated-key"))
	require.Equal(t, "rotated-key", GetAPIKey("cloud"))

	require.NoError(t, Remove("cloud"))
	require.Equal(t, "", GetAPIKey("cloud"))
	require.Equal(t, "gsk_abcdef", GetAPIKey("groq"))

	require.NoError(t, Remove("missing-provider"))
}

func TestLoadInvalidFile(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "locsync"), 0o700))
	require.NoError(t, os.WriteFile(FilePath(), []byte("{broken"), 0o600))
	require.Empty(t, Load())
}

func TestMaskKey(t *testing.T) {
	require.Equal(t, "****", MaskKey("short"))
	require.Equal(t, "****", MaskKey("12345678"))
	require.Equal(t, "1234...6789", MaskKey("123456789"))
}
