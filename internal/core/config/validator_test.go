package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Empty(t, Validate(cfg))

	cfg.Version = 0
	cfg.Discovery.RolesDir = "../elsewhere"
	cfg.Exclude.Variables = []string{"ok", " "}
	cfg.Output.TSV = "report.txt"
	cfg.Output.Markdown = "./report.txt"
	cfg.Watch.Debounce = -1
	cfg.Observability.EnableTracing = true
	cfg.Observability.OTLPEndpoint = ""

	var got []string
	for _, err := range Validate(cfg) {
		got = append(got, err.Error())
	}
	assert.Equal(t, []string{
		"version must be >= 1, got 0",
		`discovery.roles_dir must be relative to the collection, got "../elsewhere"`,
		"exclude.variables[1] must not be empty",
		`output.tsv and output.markdown both write to "./report.txt"`,
		"watch.debounce must not be negative, got -1ns",
		"observability.otlp_endpoint must be set when tracing is enabled",
	}, got)
}

func TestValidate_History(t *testing.T) {
	cfg := Default()
	cfg.History.Enabled = true
	cfg.History.Path = " "
	errs := Validate(cfg)
	if assert.Len(t, errs, 1) {
		assert.Contains(t, errs[0].Error(), "history.path")
	}
}
