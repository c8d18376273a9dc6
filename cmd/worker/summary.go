package main

import (
	"strconv"
	"strings"
	"time"

	"accidentes/internal/formatter"
	"accidentes/internal/models"
	"accidentes/internal/pipeline"
)

// renderSummary builds the console report printed after a run.
func renderSummary(result *pipeline.Result) string {
	report := result.Report

	var sb strings.Builder

	sb.WriteString("\n📊 Summary Report\n\n")

	sb.WriteString(formatter.Table([]string{"Metric", "Value"}, [][]string{
		{"Run ID", result.RunID},
		{"Source rows", strconv.Itoa(report.SourceRows)},
		{"Excluded rows", strconv.Itoa(report.ExcludedRows)},
		{"Canonical rows", strconv.Itoa(report.CanonicalRows)},
		{"High-risk settlements", strings.Join(report.HighRiskSettlements, ", ")},
		{"Kept accident types", strings.Join(report.KeptAccidentTypes, ", ")},
		{"Output", outputLabel(result)},
		{"Duration", result.Duration.Round(time.Millisecond).String()},
	}))

	sb.WriteString("\n")

	reasons := make([][]string, 0, len(models.Reasons))
	for _, reason := range models.Reasons {
		reasons = append(reasons, []string{string(reason), strconv.Itoa(report.Exclusions[reason])})
	}

	sb.WriteString(formatter.Table([]string{"Exclusion reason", "Rows"}, reasons))

	var nulls [][]string

	for _, nc := range report.NullCounts {
		if nc.Count > 0 {
			nulls = append(nulls, []string{nc.Column, strconv.Itoa(nc.Count)})
		}
	}

	if len(nulls) > 0 {
		sb.WriteString("\n")
		sb.WriteString(formatter.Table([]string{"Column", "Missing values"}, nulls))
	}

	return sb.String()
}

func outputLabel(result *pipeline.Result) string {
	if result.DryRun {
		return "(dry run)"
	}

	return result.OutputPath
}
