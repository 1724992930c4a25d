package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/drawbridge/pkg/cache"
	"github.com/matzehuels/drawbridge/pkg/cloud"
	cloudmem "github.com/matzehuels/drawbridge/pkg/cloud/mem"
	"github.com/matzehuels/drawbridge/pkg/config"
	"github.com/matzehuels/drawbridge/pkg/dns"
	dnsmem "github.com/matzehuels/drawbridge/pkg/dns/mem"
	"github.com/matzehuels/drawbridge/pkg/observability"
)

// captureOutput redirects status lines to w for the duration of the test.
func captureOutput(t *testing.T, w io.Writer) {
	t.Helper()
	prev := output
	output = w
	t.Cleanup(func() { output = prev })
}

// testEnv runs commands against in-memory backends with all state kept
// under a temporary directory.
type testEnv struct {
	cli   *CLI
	cloud *cloudmem.Cloud
	dns   *dnsmem.DNS
	out   *bytes.Buffer
	dir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(config.EnvPath, filepath.Join(dir, "config.toml"))
	t.Cleanup(observability.Reset)

	env := &testEnv{
		cloud: cloudmem.New(),
		dns:   dnsmem.New(),
		out:   &bytes.Buffer{},
		dir:   dir,
	}
	captureOutput(t, env.out)
	env.cli = New(io.Discard, LogInfo)
	env.cli.Backends = func(context.Context, config.Config, cache.Cache) (cloud.Cloud, dns.Provider, error) {
		return env.cloud, env.dns, nil
	}
	return env
}

// writeConfig writes the config file the environment points at.
func (e *testEnv) writeConfig(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// execute runs the root command with args and returns its error.
func (e *testEnv) execute(t *testing.T, args ...string) error {
	t.Helper()
	root := e.cli.RootCommand()
	root.SetArgs(args)
	root.SetOut(e.out)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}
