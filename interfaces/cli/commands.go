package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"questionnaire-builder/application/services"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
)

// sessionID names the scratch session each command imports into.
const sessionID = "cli"

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Import a record list and report what was kept",
		Long: `Import a record list and print its statistics and every lenient
decision the importer took. Exits non-zero when the file is structurally
unusable.`,
		Example: `  qgraph validate questions.json
  qgraph validate questions.json --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := toolkitFrom(cmd)
			if err != nil {
				return err
			}
			report, err := kit.importFile(cmd, args[0])
			if err != nil {
				return err
			}
			if kit.opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func newRoundtripCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "roundtrip FILE",
		Short: "Import a record list and export it with fresh identifiers",
		Example: `  qgraph roundtrip questions.json -o clean.json
  qgraph roundtrip questions.json --deterministic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := toolkitFrom(cmd)
			if err != nil {
				return err
			}
			report, err := kit.importFile(cmd, args[0])
			if err != nil {
				return err
			}
			data, err := kit.service.ExportQuestionnaire(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d questions, %d diagnostics)\n",
				out, report.Stats.Questions, len(report.Diagnostics))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the exported list to this file instead of stdout")
	return cmd
}

func newCriteriaCommand() *cobra.Command {
	var (
		qType string
		tags  []string
	)
	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "List the criteria kinds legal for a question type and tags",
		Long: `List the trigger criteria an edge leaving a question may carry. Without
--type the whole registry is printed.`,
		Example: `  qgraph criteria --type number --tag demographic_dob
  qgraph criteria`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kit, err := toolkitFrom(cmd)
			if err != nil {
				return err
			}
			options := criteria.AllOptions()
			if qType != "" {
				t, err := valueobjects.ParseQuestionType(qType)
				if err != nil {
					return err
				}
				parsed := make([]valueobjects.Tag, 0, len(tags))
				for _, raw := range tags {
					tag, err := valueobjects.ParseTag(raw)
					if err != nil {
						return err
					}
					parsed = append(parsed, tag)
				}
				options = criteria.DefaultCatalog().Options(t, parsed)
			}
			if kit.opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), options)
			}
			rows := make([]table.Row, 0, len(options))
			for _, o := range options {
				rows = append(rows, table.Row{o.Value, o.Label})
			}
			renderTable(cmd.OutOrStdout(), table.Row{"Kind", "Label"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&qType, "type", "", "question type")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "question tag (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("type", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0)
		for _, t := range valueobjects.AllQuestionTypes() {
			names = append(names, t.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func newLayoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layout FILE",
		Short: "Print the top-to-bottom node positions of a record list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := toolkitFrom(cmd)
			if err != nil {
				return err
			}
			if _, err := kit.importFile(cmd, args[0]); err != nil {
				return err
			}
			positions, err := kit.service.Layout(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			if kit.opts.output == "json" {
				return writeJSON(cmd.OutOrStdout(), positions)
			}
			ids := make([]string, 0, len(positions))
			for id := range positions {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool {
				pi, pj := positions[ids[i]], positions[ids[j]]
				if pi.Y != pj.Y {
					return pi.Y < pj.Y
				}
				return pi.X < pj.X
			})
			rows := make([]table.Row, 0, len(ids))
			for _, id := range ids {
				p := positions[id]
				rows = append(rows, table.Row{id, fmt.Sprintf("%.0f", p.X), fmt.Sprintf("%.0f", p.Y)})
			}
			renderTable(cmd.OutOrStdout(), table.Row{"ID", "X", "Y"}, rows)
			return nil
		},
	}
}

func (k *toolkit) importFile(cmd *cobra.Command, path string) (*services.ImportReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return k.service.ImportQuestionnaire(cmd.Context(), sessionID, data)
}

func printReport(w io.Writer, report *services.ImportReport) error {
	s := report.Stats
	_, _ = fmt.Fprintf(w, "questions: %d\nedges: %d (linked %d, dropped %d)\ncriteria: %d\n",
		s.Questions, s.Edges, s.LinkedEdges, s.DroppedEdges, s.Criteria)
	if len(report.Diagnostics) == 0 {
		_, _ = fmt.Fprintln(w, "diagnostics: none")
		return nil
	}
	_, _ = fmt.Fprintf(w, "diagnostics: %d\n", len(report.Diagnostics))
	rows := make([]table.Row, 0, len(report.Diagnostics))
	for _, d := range report.Diagnostics {
		rows = append(rows, table.Row{d.Code, d.Model, d.PK, d.Message})
	}
	renderTable(w, table.Row{"Code", "Model", "PK", "Message"}, rows)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
