package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"questionnaire-builder/application/services"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	domainservices "questionnaire-builder/domain/services"
	infraconfig "questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/identity"
	"questionnaire-builder/infrastructure/layout"
	"questionnaire-builder/infrastructure/persistence/memory"
)

// writeFixture exports a three question survey (boolean branching to a
// number and a dead end) into dir.
func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	ctx := context.Background()
	configs := infraconfig.NewStaticDomainConfig(nil)
	svc := services.NewQuestionnaireService(
		memory.NewSessionStore(0), nil, identity.NewSequenceProvider("fx"),
		layout.NewLayeredEngine(configs), configs, nil, zap.NewNop(),
	)

	require.NoError(t, svc.CreateQuestionnaire(ctx, "fx", nil))
	for _, q := range []struct {
		id string
		c  entities.QuestionContent
	}{
		{"q1", entities.QuestionContent{Title: "Smoker?", Type: valueobjects.TypeBoolean}},
		{"q2", entities.QuestionContent{Title: "How many?", Type: valueobjects.TypeNumber}},
		{"q3", entities.QuestionContent{Title: "Thanks", Type: valueobjects.TypeDeadEnd}},
	} {
		_, err := svc.AddQuestion(ctx, "fx", q.id, q.c)
		require.NoError(t, err)
	}
	require.NoError(t, svc.Connect(ctx, "fx", "q1", "q2", valueobjects.LabelYes))
	require.NoError(t, svc.Connect(ctx, "fx", "q1", "q3", valueobjects.LabelNo))

	data, err := svc.ExportQuestionnaire(ctx, "fx")
	require.NoError(t, err)
	path := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	fixture := writeFixture(t, dir)
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"model": "not a list"}`), 0o644))

	tests := []struct {
		name    string
		args    []string
		wantOut []string
		wantErr bool
	}{
		{
			name:    "text report",
			args:    []string{"validate", fixture},
			wantOut: []string{"questions: 3", "linked 2", "diagnostics: none"},
		},
		{
			name:    "json report",
			args:    []string{"validate", fixture, "--output", "json"},
			wantOut: []string{`"questions": 3`, `"diagnostics": []`},
		},
		{name: "structural failure", args: []string{"validate", broken}, wantErr: true},
		{name: "missing file", args: []string{"validate", filepath.Join(dir, "nope.json")}, wantErr: true},
		{name: "bad output format", args: []string{"validate", fixture, "--output", "yaml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestRoundtripCommand(t *testing.T) {
	dir := t.TempDir()
	fixture := writeFixture(t, dir)
	out := filepath.Join(dir, "clean.json")

	msg, err := run(t, "roundtrip", fixture, "-o", out, "--deterministic")
	require.NoError(t, err)
	assert.Contains(t, msg, "3 questions, 0 diagnostics")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &list))
	assert.NotEmpty(t, list)

	// The output imports cleanly again.
	report, err := run(t, "validate", out)
	require.NoError(t, err)
	assert.Contains(t, report, "questions: 3")

	stdout, err := run(t, "roundtrip", fixture)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(strings.TrimSpace(stdout))))
}

func TestCriteriaCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut []string
		notOut  []string
		wantErr bool
	}{
		{
			name:    "number with dob",
			args:    []string{"criteria", "--type", "number", "--tag", "demographic_dob"},
			wantOut: []string{"age_gte", "Time passed less than", "bool_yes"},
			notOut:  []string{"gender_female"},
		},
		{
			name:    "whole registry",
			args:    []string{"criteria"},
			wantOut: []string{"gender_female", "Cold Chain Serviceable True"},
		},
		{name: "unknown type", args: []string{"criteria", "--type", "essay"}, wantErr: true},
		{name: "unknown tag", args: []string{"criteria", "--type", "number", "--tag", "shoe_size"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			for _, not := range tt.notOut {
				assert.NotContains(t, out, not)
			}
		})
	}
}

func TestLayoutCommand(t *testing.T) {
	fixture := writeFixture(t, t.TempDir())

	out, err := run(t, "layout", fixture)
	require.NoError(t, err)
	var cells []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "│") {
			cells = append(cells, line)
		}
	}
	require.Len(t, cells, 4)
	assert.Contains(t, cells[0], "ID")

	jsonOut, err := run(t, "layout", fixture, "--output", "json")
	require.NoError(t, err)
	var positions map[string]struct{ X, Y float64 }
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &positions))
	assert.Len(t, positions, 3)
}

func TestPrintReport_DiagnosticsTable(t *testing.T) {
	report := &services.ImportReport{
		QuestionnaireID: "cli",
		Stats:           domainservices.ImportStats{Questions: 2, Edges: 2, LinkedEdges: 1, DroppedEdges: 1},
		Diagnostics: []domainservices.Diagnostic{{
			Code:    domainservices.DiagDanglingEdgeEndpoint,
			Model:   "questionnaire.edge",
			PK:      "2101",
			Message: "edge endpoints n1 -> n9 do not resolve",
		}},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, printReport(buf, report))
	out := buf.String()

	assert.Contains(t, out, "dropped 1")
	assert.Contains(t, out, "diagnostics: 1")
	assert.Contains(t, out, "┌")
	for _, cell := range []string{"CODE", "dangling_edge_endpoint", "questionnaire.edge", "2101", "do not resolve"} {
		assert.Contains(t, out, cell)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "qgraph v"+Version)
}
