package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"accidentes/internal/config"
	"accidentes/internal/normalizer"
	"accidentes/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceCSV = "Folio,Fecha,Hora,Día,Mes,Georreferencia,Nombre de asentamiento,Tipo de accidente,Nota\n" +
	"1,2023-01-04,08:15,Miercoles,Enero,\"25.67, -100.31\",Centro,Choque,\n" +
	"2,2023-01-07,SD,Sabado,Enero,\"25.70, -100.30\",Centro,Choque,\n"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestRunThenVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sourceCSV))
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "accidentes.csv")

	out, err := execute(t, "run", "--url", srv.URL, "--output", output, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary Report")
	assert.Contains(t, out, "| hora_sentinel          | 1    |")
	assert.FileExists(t, output)

	out, err = execute(t, "verify", "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows")
}

func TestVerify_DetectsTampering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sourceCSV))
	}))
	defer srv.Close()

	output := filepath.Join(t.TempDir(), "accidentes.csv")

	_, err := execute(t, "run", "--url", srv.URL, "--output", output, "--log-level", "error")
	require.NoError(t, err)

	f, err := os.OpenFile(output, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("9,extra\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = execute(t, "verify", "--output", output)
	assert.Error(t, err)
}

func TestRun_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "run", "--log-level", "loud")
	assert.Error(t, err)
}

func TestConfig_WritesEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pinned.yaml")
	output := filepath.Join(dir, "accidentes.csv")

	out, err := execute(t, "config", "--output", output, "--log-format", "json", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, output, cfg.Output.Path)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, config.DefaultSourceURL, cfg.Source.URL)
}

func TestConfig_RequiresPath(t *testing.T) {
	_, err := execute(t, "config")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "worker version dev\n", out)
}

func TestRenderSummary_DryRun(t *testing.T) {
	out := renderSummary(&pipeline.Result{
		RunID:  "abc",
		DryRun: true,
		Report: &normalizer.Report{
			NullCounts: []normalizer.ColumnCount{{Column: "Hora", Count: 0}, {Column: "Nombre_de_asentamiento", Count: 3}},
		},
	})

	assert.Contains(t, out, "(dry run)")
	assert.Contains(t, out, "| Nombre_de_asentamiento | 3              |")
	assert.NotContains(t, out, "| Hora ")
}
