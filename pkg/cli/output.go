package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unsupported output format %q (want text, json or csv)", s))
	}
}

// Table is tabular command output. Text renders it aligned, CSV as rows,
// and JSON as a list of objects keyed by header.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Records returns the rows keyed by header.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[h] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out
}

// Formatter formats command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter writes strings and string slices one per line and tables
// aligned in columns. Anything else is printed with %v.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	switch v := data.(type) {
	case []string:
		for _, line := range v {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case Table:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if len(v.Headers) > 0 {
			fmt.Fprintln(tw, strings.Join(v.Headers, "\t"))
		}
		for _, row := range v.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		return tw.Flush()
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	if t, ok := data.(Table); ok {
		data = t.Records()
	}
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// CSVFormatter formats output as CSV. It accepts a Table or a string slice,
// which becomes a single column under Headers.
type CSVFormatter struct {
	Headers []string
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	csvWriter := csv.NewWriter(w)

	var headers []string
	var rows [][]string
	switch v := data.(type) {
	case Table:
		headers, rows = v.Headers, v.Rows
	case []string:
		headers = f.Headers
		for _, s := range v {
			rows = append(rows, []string{s})
		}
	default:
		return fmt.Errorf("csv output does not support %T", data)
	}

	if len(headers) > 0 {
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return err
	}
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
