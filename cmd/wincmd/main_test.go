package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps a real user config file out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", dir)
	t.Setenv("HOME", dir)
}

func parse(t *testing.T, args ...string) (flags, []string, error) {
	t.Helper()
	isolate(t)
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse(args))

	f := flags{}
	f.configPath, _ = cmd.Flags().GetString("config")
	f.logLevel, _ = cmd.Flags().GetString("log-level")
	f.pty, _ = cmd.Flags().GetBool("pty")
	f.encoding, _ = cmd.Flags().GetString("encoding")
	f.startup, _ = cmd.Flags().GetString("startup")

	cfg, err := loadConfig(cmd, f)
	if err == nil {
		assert.NotNil(t, cfg)
	}
	return f, cmd.Flags().Args(), err
}

func TestFlagsStopAtFirstPositional(t *testing.T) {
	_, rest, err := parse(t, "--pty", "ping", "-n", "3", "host")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "-n", "3", "host"}, rest)
}

func TestLoadConfigAppliesChangedFlags(t *testing.T) {
	isolate(t)
	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--encoding", "cp437", "--startup", "sh", "--log-level", "debug"}))

	cfg, err := loadConfig(cmd, flags{encoding: "cp437", startup: "sh", logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "cp437", cfg.Session.Encoding)
	assert.Equal(t, "sh", cfg.Shell.StartupCommand)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Process.PTY, "unset flags keep config values")
}

func TestLoadConfigRejectsUnknownEncoding(t *testing.T) {
	_, _, err := parse(t, "--encoding", "ebcdic")
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wincmd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[shell]\nprompt_marker = \"$ \"\n"), 0o600))

	cmd := newRootCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path}))

	cfg, err := loadConfig(cmd, flags{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, "$ ", cfg.Shell.PromptMarker)
}
