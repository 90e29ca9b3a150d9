package label

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Encoding selects the report output representation
type Encoding string

const (
	EncodingText  Encoding = "text"
	EncodingTable Encoding = "table"
	EncodingJSON  Encoding = "json"
	EncodingYAML  Encoding = "yaml"
)

// ParseEncoding validates an output flag value
func ParseEncoding(value string) (Encoding, error) {
	switch Encoding(value) {
	case EncodingText, EncodingTable, EncodingJSON, EncodingYAML:
		return Encoding(value), nil
	default:
		return "", fmt.Errorf("unsupported output encoding '%s' (expected text, table, json, or yaml)", value)
	}
}

// DefaultEncoding picks table for interactive terminals and the stable
// text form everywhere else, so piped and CI output stays diffable
func DefaultEncoding(w io.Writer) Encoding {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return EncodingTable
	}
	return EncodingText
}

// FormatAction renders the canonical report line for an action:
// <verb> <label-name> followed by the field changes. Lines are byte-stable
// for identical input so repeated dry-runs produce identical diff text.
func FormatAction(a Action) string {
	switch a.Kind {
	case ActionCreate:
		return fmt.Sprintf("create %s (%s)", a.Name, strings.Join(createChanges(a), ", "))
	case ActionRename, ActionUpdate:
		return fmt.Sprintf("%s %s (%s)", a.Kind, a.Name, strings.Join(pairChanges(a), ", "))
	case ActionDelete:
		return fmt.Sprintf("delete %s", a.Name)
	default:
		return fmt.Sprintf("%s %s", a.Kind, a.Name)
	}
}

// FormatActionResult renders the canonical line for an executed action,
// appending the failure reason when the action failed
func FormatActionResult(ar ActionResult) string {
	line := FormatAction(ar.Action)
	if ar.Outcome == OutcomeFailed {
		line += fmt.Sprintf(" [failed: %s]", ar.Reason)
	}
	return line
}

// createChanges lists the fields a create establishes
func createChanges(a Action) []string {
	changes := []string{fmt.Sprintf("color: %s", a.After.Color)}
	if a.After.Description != "" {
		changes = append(changes, fmt.Sprintf("description: %q", a.After.Description))
	}
	return changes
}

// pairChanges lists the differing fields of a matched pair in fixed order:
// name, then color, then description
func pairChanges(a Action) []string {
	var changes []string
	if a.Before.Name != a.After.Name {
		changes = append(changes, fmt.Sprintf("name: %s -> %s", a.Before.Name, a.After.Name))
	}
	beforeColor := NormalizeColor(a.Before.Color)
	afterColor := NormalizeColor(a.After.Color)
	if beforeColor != afterColor {
		changes = append(changes, fmt.Sprintf("color: %s -> %s", beforeColor, afterColor))
	}
	if a.Before.Description != a.After.Description {
		changes = append(changes, fmt.Sprintf("description: %q -> %q", a.Before.Description, a.After.Description))
	}
	return changes
}

// changesColumn renders the field changes without the surrounding parens
// for tabular output
func changesColumn(a Action) string {
	switch a.Kind {
	case ActionCreate:
		return strings.Join(createChanges(a), ", ")
	case ActionRename, ActionUpdate:
		return strings.Join(pairChanges(a), ", ")
	default:
		return ""
	}
}

// RenderPlan writes a plan in the requested encoding
func RenderPlan(w io.Writer, plan *Plan, enc Encoding) error {
	switch enc {
	case EncodingText:
		for _, a := range plan.Actions {
			if _, err := fmt.Fprintln(w, FormatAction(a)); err != nil {
				return err
			}
		}
		return nil

	case EncodingTable:
		t := newReportTable(w)
		t.AppendHeader(table.Row{"ACTION", "LABEL", "CHANGES"})
		for _, a := range plan.Actions {
			t.AppendRow(table.Row{string(a.Kind), a.Name, changesColumn(a)})
		}
		t.Render()
		return nil

	case EncodingJSON:
		return renderJSON(w, plan)

	case EncodingYAML:
		return renderYAML(w, plan)

	default:
		return fmt.Errorf("unsupported output encoding '%s'", enc)
	}
}

// RenderResult writes an apply result in the requested encoding
func RenderResult(w io.Writer, result *Result, enc Encoding) error {
	switch enc {
	case EncodingText:
		for _, ar := range result.Actions {
			if _, err := fmt.Fprintln(w, FormatActionResult(ar)); err != nil {
				return err
			}
		}
		return nil

	case EncodingTable:
		t := newReportTable(w)
		t.AppendHeader(table.Row{"ACTION", "LABEL", "CHANGES", "OUTCOME", "ERROR"})
		for _, ar := range result.Actions {
			t.AppendRow(table.Row{
				string(ar.Action.Kind),
				ar.Action.Name,
				changesColumn(ar.Action),
				string(ar.Outcome),
				ar.Reason,
			})
		}
		t.Render()
		return nil

	case EncodingJSON:
		return renderJSON(w, result)

	case EncodingYAML:
		return renderYAML(w, result)

	default:
		return fmt.Errorf("unsupported output encoding '%s'", enc)
	}
}

// RenderMultiResult writes a manifest-wide apply outcome. Text and table
// forms group the canonical report lines under an owner/repo heading; json
// and yaml emit the whole result as one document.
func RenderMultiResult(w io.Writer, result *MultiResult, enc Encoding) error {
	switch enc {
	case EncodingText, EncodingTable:
		printed := 0
		for _, repo := range result.Repos {
			if repo.Result == nil || len(repo.Result.Actions) == 0 {
				continue
			}
			if printed > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			printed++
			if _, err := fmt.Fprintf(w, "%s:\n", repo.Repo); err != nil {
				return err
			}
			if enc == EncodingTable {
				if err := RenderResult(w, repo.Result, enc); err != nil {
					return err
				}
				continue
			}
			for _, ar := range repo.Result.Actions {
				if _, err := fmt.Fprintf(w, "  %s\n", FormatActionResult(ar)); err != nil {
					return err
				}
			}
		}
		return nil

	case EncodingJSON:
		return renderJSON(w, result)

	case EncodingYAML:
		return renderYAML(w, result)

	default:
		return fmt.Errorf("unsupported output encoding '%s'", enc)
	}
}

func newReportTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	return t
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
