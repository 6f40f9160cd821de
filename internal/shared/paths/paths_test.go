package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cwd := filepath.FromSlash("/home/user")

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{name: "relative", arg: "docs", want: filepath.Join(cwd, "docs")},
		{name: "trailing space", arg: "My Documents \t", want: filepath.Join(cwd, "My Documents")},
		{name: "dot dot", arg: "..", want: filepath.Dir(cwd)},
		{name: "empty stays", arg: "", want: cwd},
	}
	if runtime.GOOS != "windows" {
		tests = append(tests, struct {
			name string
			arg  string
			want string
		}{name: "absolute", arg: "/opt//tools/", want: "/opt/tools"})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(cwd, tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRejectsNUL(t *testing.T) {
	_, err := Resolve("/", "a\x00b")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParent(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/home"), Parent(filepath.FromSlash("/home/user")))
}

func TestLogFile(t *testing.T) {
	assert.True(t, strings.HasPrefix(LogFile(), os.TempDir()))
	assert.Equal(t, "wincmd.log", filepath.Base(LogFile()))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)
	if runtime.GOOS == "darwin" {
		t.Skip("config dir is fixed under $HOME/Library")
	}

	path, ok := ConfigFile()
	assert.False(t, ok)
	assert.Equal(t, filepath.Join(dir, AppName, "config.toml"), path)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, ok = ConfigFile()
	assert.True(t, ok)
}
