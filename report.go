package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"bizdash/internal/models"
	"bizdash/internal/pipeline"
)

type reportSource interface {
	Sales(ctx context.Context) pipeline.SalesResult
	CSAT(ctx context.Context) pipeline.CSATResult
	CustomerSnapshots(ctx context.Context) pipeline.SnapshotResult
}

type report struct {
	Sales     []models.SalesDataPoint    `json:"sales"`
	CSAT      []models.CSATDataPoint     `json:"csat"`
	Customers []models.SnapshotDataPoint `json:"customers"`
}

// runReport runs the three pipelines in turn and writes their points to out.
func runReport(ctx context.Context, src reportSource, out, progress io.Writer) error {
	bar := progressbar.NewOptions(3,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("pipelines"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var r report
	steps := []struct {
		name string
		run  func()
	}{
		{pipeline.NameSales, func() { r.Sales = src.Sales(ctx).Points }},
		{pipeline.NameCSAT, func() { r.CSAT = src.CSAT(ctx).Points }},
		{pipeline.NameCustomers, func() { r.Customers = src.CustomerSnapshots(ctx).Points }},
	}
	for _, step := range steps {
		bar.Describe(step.name)
		step.run()
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
