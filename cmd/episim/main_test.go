package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/export"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/sweep"
)

func TestMain(m *testing.M) {
	newLogger = func(io.Writer, bool) *log.Logger { return logging.Discard() }
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCSV(t *testing.T) {
	out, err := execute(t, "run", "--format", "csv", "--time", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "time,susceptible,infected,recovered", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,"))
}

func TestRunTable(t *testing.T) {
	out, err := execute(t, "run", "--beta", "3", "--gamma", "1.5")
	require.NoError(t, err)
	assert.Contains(t, out, "Reproduction Number (R0): 2.00")
	assert.Contains(t, out, "peak_infected")
	assert.Contains(t, out, "herd_immunity")
}

func TestRunFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sir.yaml")
	cfg := config.DefaultConfig()
	cfg.Beta = 3
	cfg.Horizon = 10
	require.NoError(t, config.Save(path, cfg))

	out, err := execute(t, "run", "--config", path, "--format", "json")
	require.NoError(t, err)
	res, err := export.ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.R0)
	assert.Equal(t, 11, res.Len())

	out, err = execute(t, "run", "--config", path, "--beta", "4", "--format", "json")
	require.NoError(t, err)
	res, err = export.ReadJSON(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.R0)
}

func TestRunStiffRecovery(t *testing.T) {
	out, err := execute(t, "run", "--i0", "0.01", "--beta", "1", "--gamma", "1e5", "--time", "70")
	require.NoError(t, err)
	assert.Contains(t, out, "stiff switch")
}

func TestRunPreset(t *testing.T) {
	out, err := execute(t, "run", "--preset", "no-recovery")
	require.NoError(t, err)
	assert.Contains(t, out, "Reproduction Number (R0): 0.00")

	_, err = execute(t, "run", "--preset", "nope")
	assert.ErrorContains(t, err, "unknown preset")
}

func TestRunOutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")
	_, err := execute(t, "run", "--format", "svg", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := execute(t, "run", "--step", "0")
	assert.Error(t, err)

	_, err = execute(t, "run", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "run", "--integrator", "leapfrog")
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	for _, name := range config.ListPresets() {
		assert.Contains(t, out, name)
	}
}

func TestCompare(t *testing.T) {
	out, err := execute(t, "compare", "rk45", "rk4", "--time", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "rk45")
	assert.Contains(t, out, "rk4")
	assert.NotContains(t, out, "error")
}

func TestSweepJSON(t *testing.T) {
	out, err := execute(t, "sweep", "--param", "beta", "--from", "1", "--to", "3", "--n", "3", "--format", "json", "--time", "30")
	require.NoError(t, err)

	var rows []sweep.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, []float64{1, 2, 3}, []float64{rows[0].Value, rows[1].Value, rows[2].Value})
	assert.InDelta(t, 2.0, rows[1].R0, 1e-12)
}

func TestPlotExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	_, err := execute(t, "run", "--format", "json", "--out", path)
	require.NoError(t, err)

	out, err := execute(t, "plot", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Reproduction Number (R0): 2.00")
}
