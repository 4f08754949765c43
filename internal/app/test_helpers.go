package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/hcl"
	"github.com/specialistvlad/fragmentgo/internal/testutil"
)

// SetupAppTest writes the model files to a temporary directory and builds an
// App over them with debug logging. It returns the app, its report output
// and its log output.
func SetupAppTest(t *testing.T, files map[string]string, cfg Config) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg.ModelPaths = append(cfg.ModelPaths, testutil.WriteModel(t, files))
	cfg.LogLevel = "debug"
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(context.Background(), out, logBuffer, appConfig, hcl.NewLoader())

	t.Cleanup(func() {
		if testutil.LogEnabled() {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	require.NoError(t, err)

	return testApp, out, logBuffer
}
