package app

import (
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/engine/spec"
	"argspec/internal/output"
	"argspec/internal/shared/util"
	"bytes"
	"fmt"
	"os"
)

// writeIfChanged writes content unless the file already holds exactly it, so
// regenerating an up-to-date role leaves the file untouched.
func writeIfChanged(path, content string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, []byte(content)) {
		return false, nil
	}
	if err := util.WriteStringWithDirs(path, content, 0o644); err != nil {
		code := errors.CodeInternal
		if os.IsPermission(err) {
			code = errors.CodePermissionDenied
		}
		return false, errors.AddContext(errors.Wrap(err, code, "write output"), errors.CtxPath, path)
	}
	return true, nil
}

// writeReports renders the optional TSV and Markdown reports over the
// successfully analyzed roles.
func writeReports(req ports.GenerateRequest, analyses []*spec.RoleAnalysis) ([]string, error) {
	type report struct {
		path     string
		name     string
		generate func() (string, error)
	}
	reports := []report{
		{req.TSVFile, "tsv", output.NewTSVGenerator(analyses).Generate},
		{req.MarkdownFile, "markdown", output.NewMarkdownGenerator(analyses).Generate},
	}

	var written []string
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		content, err := r.generate()
		if err != nil {
			return written, fmt.Errorf("generate %s report: %w", r.name, err)
		}
		changed, err := writeIfChanged(r.path, content)
		if err != nil {
			return written, err
		}
		if changed {
			written = append(written, r.path)
		}
	}
	return written, nil
}
