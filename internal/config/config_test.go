package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_FromProjectRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"name":"demo"}`)
	writeFile(t, filepath.Join(dir, FileName), "node_command: /opt/node/bin/node\nsave_first: true\ntimeout: 10m\n")

	res, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, res.ProjectRoot)
	assert.Equal(t, "/opt/node/bin/node", res.Config.Node())
	assert.Equal(t, DefaultNPMCommand, res.Config.NPM())
	assert.True(t, res.Config.SaveFirst)
	assert.Equal(t, 10*time.Minute, res.Config.Timeout())
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{}`)
	writeFile(t, filepath.Join(root, FileName), "output_to_new_tab: true\n")

	sub := filepath.Join(root, "src", "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	res, err := Load(sub)
	require.NoError(t, err)
	assert.Equal(t, root, res.ProjectRoot)
	assert.True(t, res.Config.OutputToNewTab)
}

func TestLoad_NoPackageJSON(t *testing.T) {
	dir := t.TempDir()

	res, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, res.ProjectRoot, "fallback to start dir")
	assert.Empty(t, res.Path)
	assert.Equal(t, DefaultNodeCommand, res.Config.Node())
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "node_command: [unterminated\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfig_ExplicitEmptyCommandIsPreserved(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "node_command: \"\"\nnpm_command: \"\"\n")

	res, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "", res.Config.Node())
	assert.Equal(t, "", res.Config.NPM())
}

func TestConfig_Defaults(t *testing.T) {
	c := &Config{}
	assert.True(t, c.ShouldKillPrevious())
	assert.Equal(t, DefaultDebugArg, c.DebugArg())
	assert.Equal(t, DefaultEnvFile, c.EnvFile())
	assert.Equal(t, time.Duration(0), c.Timeout())
	assert.Equal(t, DefaultMaxOutput, c.MaxOutputBytes())
	assert.Equal(t, filepath.Join("/proj", DefaultToolsDir), c.ToolsDir("/proj"))
	assert.NotEmpty(t, c.HistoryPath())
}

func TestConfig_Overrides(t *testing.T) {
	off := false
	none := ""
	c := &Config{
		KillPrevious: &off,
		RawDebugArg:  "--inspect-brk",
		RawToolsDir:  "/usr/share/noderun",
		RawEnvFile:   &none,
		RawTimeout:   "bogus",
		RawMaxOutput: 42,
		HistoryDir:   "/var/tmp/runs",
	}
	assert.False(t, c.ShouldKillPrevious())
	assert.Equal(t, "--inspect-brk", c.DebugArg())
	assert.Equal(t, "/usr/share/noderun", c.ToolsDir("/proj"))
	assert.Equal(t, "", c.EnvFile())
	assert.Equal(t, time.Duration(0), c.Timeout(), "unparseable timeout means none")
	assert.Equal(t, 42, c.MaxOutputBytes())
	assert.Equal(t, "/var/tmp/runs", c.HistoryPath())
}

func TestFileProvider_ExplicitPathAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "npm_command: /usr/local/bin/npm\n")

	p, err := NewFileProvider(dir, path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/npm", p.Config().NPM())
	assert.Equal(t, dir, p.ProjectRoot())

	writeFile(t, path, "npm_command: /opt/npm\n")
	require.NoError(t, p.Reload())
	assert.Equal(t, "/opt/npm", p.Config().NPM())
}

func TestStatic_NilConfig(t *testing.T) {
	var p Provider = Static{}
	assert.Equal(t, DefaultNodeCommand, p.Config().Node())
}

func TestFileProvider_Retarget(t *testing.T) {
	first := t.TempDir()
	p, err := NewFileProvider(first, "")
	require.NoError(t, err)
	assert.Empty(t, p.Path())
	assert.Equal(t, DefaultNodeCommand, p.Config().Node())

	second := t.TempDir()
	writeFile(t, filepath.Join(second, "package.json"), `{}`)
	writeFile(t, filepath.Join(second, FileName), "node_command: /opt/node\n")

	require.NoError(t, p.Retarget(second))
	assert.Equal(t, "/opt/node", p.Config().Node())
	assert.Equal(t, second, p.ProjectRoot())
	assert.Equal(t, filepath.Join(second, FileName), p.Path())

	broken := t.TempDir()
	writeFile(t, filepath.Join(broken, "package.json"), `{}`)
	writeFile(t, filepath.Join(broken, FileName), "node_command: [\n")
	assert.Error(t, p.Retarget(broken))
	assert.Equal(t, second, p.ProjectRoot())
}
