package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"accidentes/internal/config"
	"accidentes/internal/fetcher"
	"accidentes/internal/logger"
	"accidentes/internal/models"
	"accidentes/internal/normalizer"
	"accidentes/internal/writer"
	"accidentes/pkg/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceHeader = "Folio, Fecha ,Hora,Día,Mes,Georreferencia,Nombre de asentamiento,Tipo de accidente,Nota,Ejercicio, Número \n"

func sourceRow(folio int, fecha, hora, dia, mes, geo, colonia, tipo string) string {
	return fmt.Sprintf("%d,%s,%s,%s,%s,\"%s\",%s,%s,,2023,%d\n", folio, fecha, hora, dia, mes, geo, colonia, tipo, folio)
}

func buildSource() string {
	var sb strings.Builder

	sb.WriteString(sourceHeader)

	folio := 0

	// 450 Centro choques and 250 Mitras atropellos.
	for n := 0; n < 450; n++ {
		sb.WriteString(sourceRow(folio, "2023-01-04", "08:15", "Miercoles", "Enero", "25.67, -100.31", "Centro", "Choque"))
		folio++
	}

	for n := 0; n < 250; n++ {
		sb.WriteString(sourceRow(folio, "2023-01-07", "20:00:00", "Sabado", "Enero", "25.7, -100.3", "Mitras", "Atropello"))
		folio++
	}

	// Rows that never make it.
	sb.WriteString(sourceRow(folio, "2023-01-04", "SD", "Miercoles", "Enero", "25.67, -100.31", "Centro", "Choque"))
	sb.WriteString(sourceRow(folio+1, "2023-01-04", "08:15", "Miercoles", "Enero", "25.67 -100.31", "Centro", "Choque"))
	sb.WriteString(sourceRow(folio+2, "2023-01-04", "08:15", "Funday", "Enero", "25.67, -100.31", "Centro", "Choque"))
	sb.WriteString(sourceRow(folio+3, "2023-01-04", "08:15", "Miercoles", "Enero", "25.67, -100.31", "NA", "Choque"))

	return sb.String()
}

func newServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func testConfig(t *testing.T, url string) *config.Config {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Source.URL = url
	cfg.Output.Path = filepath.Join(dir, "csv", "accidentes_viales_mty.csv")
	cfg.Output.CreateDirs = true
	cfg.Output.XLSXPath = filepath.Join(dir, "csv", "accidentes_viales_mty.xlsx")
	cfg.Metrics.TextfilePath = filepath.Join(dir, "accidentes.prom")

	return cfg
}

func TestRun_EndToEnd(t *testing.T) {
	srv := newServer(t, buildSource())
	cfg := testConfig(t, srv.URL)

	result, err := Run(context.Background(), cfg, logger.Discard(), Options{Client: srv.Client()})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, http.StatusOK, result.Fetch.StatusCode)

	report := result.Report
	assert.Equal(t, 704, report.SourceRows)
	assert.Equal(t, 700, report.CanonicalRows)
	assert.Equal(t, 4, report.ExcludedRows)
	assert.Equal(t, map[models.Reason]int{
		models.ReasonHoraSentinel: 1,
		models.ReasonInvalidGeo:   1,
		models.ReasonUnknownDia:   1,
		models.ReasonMissingValue: 1,
	}, report.Exclusions)
	assert.Equal(t, []string{"Centro", "Mitras"}, report.HighRiskSettlements)
	assert.Equal(t, []string{"choque"}, report.KeptAccidentTypes)

	file, err := writer.ReadCanonical(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, result.Table.Header(), file.Header)
	require.Len(t, file.Rows, 700)

	col := func(name string) int {
		for i, h := range file.Header {
			if h == name {
				return i
			}
		}

		t.Fatalf("column %s not found", name)

		return -1
	}

	assert.NotContains(t, file.Header, "Nota")
	assert.NotContains(t, file.Header, "Ejercicio")
	assert.Contains(t, file.Header, "Numero")

	first := file.Rows[0]
	assert.Equal(t, "0", file.Index[0])
	assert.Equal(t, "25.67", first[col(models.ColLatitud)])
	assert.Equal(t, "-100.31", first[col(models.ColLongitud)])
	assert.Equal(t, "2", first[col(models.ColDiaNum)])
	assert.Equal(t, "0", first[col(models.ColMesNum)])
	assert.Equal(t, "8", first[col(models.ColHoraNum)])
	assert.Equal(t, "08:15:00", first[col(models.ColHora)])
	assert.Equal(t, "2023-01-04", first[col(models.ColFecha)])
	assert.Equal(t, normalizer.BandManana, first[col(models.ColGrupoHorario)])
	assert.Equal(t, "0", first[col(models.ColEsFinSemana)])
	assert.Equal(t, "1", first[col(models.ColColoniaAltoRiesgo)])
	assert.Equal(t, "choque", first[col(models.ColTipoSimplificado)])

	last := file.Rows[len(file.Rows)-1]
	assert.Equal(t, "699", file.Index[len(file.Index)-1])
	assert.Equal(t, "5", last[col(models.ColDiaNum)])
	assert.Equal(t, "1", last[col(models.ColEsFinSemana)])
	assert.Equal(t, "atropello", last[col(models.ColTipo)])
	assert.Equal(t, normalizer.OtherAccidentType, last[col(models.ColTipoSimplificado)])
	assert.Equal(t, normalizer.BandNoche, last[col(models.ColGrupoHorario)])

	m, err := metadata.Verify(cfg.Output.Path, cfg.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, m.RunID)
	assert.Equal(t, 700, m.Rows)

	rows, err := writer.ReadXLSXRows(cfg.Output.XLSXPath)
	require.NoError(t, err)
	assert.Len(t, rows, 701)

	prom, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "accidentes_rows_written_total 700")
	assert.Contains(t, string(prom), "accidentes_rows_fetched_total 704")
}

func TestRun_RoundTripIsStable(t *testing.T) {
	srv := newServer(t, buildSource())
	cfg := testConfig(t, srv.URL)

	result, err := Run(context.Background(), cfg, logger.Discard(), Options{})
	require.NoError(t, err)

	file, err := writer.ReadCanonical(cfg.Output.Path)
	require.NoError(t, err)

	for i, rec := range result.Table.Records {
		assert.Equal(t, rec.Values(result.Table.SourceColumns), file.Rows[i])
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	srv := newServer(t, buildSource())
	cfg := testConfig(t, srv.URL)

	result, err := Run(context.Background(), cfg, logger.Discard(), Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 700, result.Report.CanonicalRows)
	assert.NoFileExists(t, cfg.Output.Path)
	assert.NoFileExists(t, cfg.Output.XLSXPath)
	assert.NoFileExists(t, cfg.ManifestPath())
	assert.NoFileExists(t, cfg.Metrics.TextfilePath)
}

func TestRun_FetchFailureLeavesOutputUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.Output.Path), 0755))
	require.NoError(t, os.WriteFile(cfg.Output.Path, []byte("previous run\n"), 0644))

	_, err := Run(context.Background(), cfg, logger.Discard(), Options{})

	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(data))

	prom, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "accidentes_last_success_timestamp_seconds 0")
}

func TestRun_MissingColumnIsFatal(t *testing.T) {
	srv := newServer(t, "Folio,Fecha\n1,2023-01-01\n")
	cfg := testConfig(t, srv.URL)

	_, err := Run(context.Background(), cfg, logger.Discard(), Options{})
	require.ErrorIs(t, err, normalizer.ErrMissingColumn)
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestRun_LocalFile(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Source.File = filepath.Join(t.TempDir(), "source.csv")
	cfg.Output.XLSXPath = ""
	require.NoError(t, os.WriteFile(cfg.Source.File, []byte("\ufeff"+buildSource()), 0644))

	result, err := Run(context.Background(), cfg, logger.Discard(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 700, result.Report.CanonicalRows)
	assert.Empty(t, result.XLSXPath)
}
