package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/record"
	"github.com/specialistvlad/fragmentgo/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	err := Execute(context.Background(), args, out, errOut)
	return out.String(), errOut.String(), err
}

func TestExecuteUsageErrors(t *testing.T) {
	t.Parallel()
	model := testutil.WriteModel(t, testutil.SteelModel)

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"lcia", "--not-a-flag"}, wantMsg: "unknown flag"},
		{name: "no model", args: []string{"lcia", "can"}, wantMsg: "no model given"},
		{name: "missing fragment", args: []string{"-m", model, "tree"}, wantMsg: "accepts 1 arg"},
		{name: "too many fragments", args: []string{"-m", model, "export", "a", "b"}, wantMsg: "accepts at most 1 arg"},
		{name: "bad log level", args: []string{"-m", model, "--log-level", "loud", "tree", "can"}, wantMsg: "invalid log level"},
		{name: "negative workers", args: []string{"-m", model, "--workers", "-1", "tree", "can"}, wantMsg: "workers"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := execute(t, tc.args...)
			require.Error(t, err)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "want *ExitError, got %T: %v", err, err)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestExecuteHelp(t *testing.T) {
	t.Parallel()
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, name := range []string{"traverse", "lcia", "tree", "inventory", "export", "scenarios"} {
		assert.Contains(t, out, name)
	}
}

func TestExecuteCommands(t *testing.T) {
	t.Parallel()
	model := testutil.WriteModel(t, testutil.SteelModel)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "lcia", args: []string{"lcia", "steel production"}, want: []string{"gwp [kg CO2 eq]", "furnace emissions", "total"}},
		{name: "lcia by stage", args: []string{"lcia", "steel production", "--stages", "-q", "gwp"}, want: []string{"Mining"}},
		{name: "lcia compare", args: []string{"lcia", "steel production", "--compare", "recycling"}, want: []string{"Scenario: recycling"}},
		{name: "traverse", args: []string{"traverse", "steel production", "-s", "recycling"}, want: []string{"Node weight", "scrap"}},
		{name: "tree", args: []string{"tree", "steel production"}, want: []string{"Stage: Mining"}},
		{name: "inventory", args: []string{"inventory", "steel production"}, want: []string{"slag"}},
		{name: "scenarios", args: []string{"scenarios", "steel production"}, want: []string{"recycling"}},
		{name: "export yaml", args: []string{"export", "ore", "-f", "yaml"}, want: []string{"name: ore"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			out, _, err := execute(t, append([]string{"-m", model}, tc.args...)...)
			require.NoError(t, err)
			for _, want := range tc.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestExecuteUnknownFragment(t *testing.T) {
	t.Parallel()
	model := testutil.WriteModel(t, testutil.SteelModel)

	_, _, err := execute(t, "-m", model, "lcia", "nothing")
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "runtime failures are not usage errors")
}

func TestExportToFileAndApply(t *testing.T) {
	t.Parallel()
	model := testutil.WriteModel(t, testutil.SteelModel)
	path := filepath.Join(t.TempDir(), "records.msgpack")

	_, _, err := execute(t, "-m", model, "export", "-f", "msgpack", "-o", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := record.MsgPackCodec{}.Decode(f)
	require.NoError(t, err)
	assert.Len(t, records, 9)

	out, _, err := execute(t, "-m", model, "--records", path, "lcia", "steel production")
	require.NoError(t, err)
	assert.Contains(t, out, "gwp")
}

func TestMetricsTextfile(t *testing.T) {
	t.Parallel()
	model := testutil.WriteModel(t, testutil.SteelModel)
	path := filepath.Join(t.TempDir(), "fragmentgo.prom")

	_, _, err := execute(t, "-m", model, "--metrics-textfile", path, "traverse", "can")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fragmentgo_operations_total")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCompareReportsWriteErrors(t *testing.T) {
	t.Parallel()
	model := testutil.WriteModel(t, testutil.SteelModel)

	err := Execute(context.Background(),
		[]string{"-m", model, "lcia", "steel production", "--compare", "recycling"},
		failingWriter{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "disk full")
}
