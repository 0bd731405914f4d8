// Package output prints hearthctl results as text, tables or JSON
package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/hearthstay/server/pkg/config"
	jsoniter "github.com/json-iterator/go"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatText  OutputFormat = "text"
)

var (
	out      io.Writer = color.Output
	override OutputFormat
	jsonAPI  = jsoniter.ConfigCompatibleWithStandardLibrary
)

// SetWriter redirects all output; nil restores the terminal
func SetWriter(w io.Writer) {
	if w == nil {
		w = color.Output
	}
	out = w
}

// SetFormat overrides the configured format; "" clears the override
func SetFormat(format string) error {
	if format != "" && !ValidateOutputFormat(format) {
		return fmt.Errorf("unknown output format %q (json, table, text)", format)
	}
	override = OutputFormat(format)
	return nil
}

// GetOutputFormat returns the effective output format
func GetOutputFormat() OutputFormat {
	format := override
	if format == "" {
		format = OutputFormat(config.GetString("output.format"))
	}
	switch format {
	case FormatJSON, FormatTable:
		return format
	default:
		return FormatText
	}
}

// ValidateOutputFormat checks if format is valid
func ValidateOutputFormat(format string) bool {
	return format == "json" || format == "table" || format == "text"
}

// Field is one labelled value of a record
type Field struct {
	Label string
	Value any
}

// Print writes data as pretty JSON, preceded by title in text mode
func Print(title string, data any) error {
	if GetOutputFormat() != FormatJSON && title != "" {
		color.New(color.Bold).Fprintf(out, "%s:\n", title)
	}
	return printJSON(data)
}

// PrintList writes rows as a table, or data as JSON in json mode
func PrintList(data any, headers []string, rows [][]string) error {
	if GetOutputFormat() == FormatJSON {
		return printJSON(data)
	}
	if len(rows) == 0 {
		PrintInfo("No results")
		return nil
	}
	printTable(headers, rows)
	return nil
}

// PrintRecord writes ordered fields, or data as JSON in json mode
func PrintRecord(title string, data any, fields []Field) error {
	switch GetOutputFormat() {
	case FormatJSON:
		return printJSON(data)
	case FormatTable:
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Label, fmt.Sprint(f.Value)})
		}
		printTable([]string{"Field", "Value"}, rows)
		return nil
	default:
		bold := color.New(color.Bold)
		if title != "" {
			bold.Fprintf(out, "%s\n", title)
		}
		for _, f := range fields {
			bold.Fprint(out, "  "+f.Label+": ")
			fmt.Fprintf(out, "%v\n", f.Value)
		}
		return nil
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...any) {
	color.New(color.FgGreen).Fprintf(out, msg+"\n", args...)
}

// PrintError prints an error message
func PrintError(msg string, args ...any) {
	color.New(color.FgRed).Fprintf(out, "Error: "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...any) {
	color.New(color.FgCyan).Fprintf(out, msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...any) {
	color.New(color.FgYellow).Fprintf(out, "Warning: "+msg+"\n", args...)
}

func printJSON(data any) error {
	s, err := FormatAsPrettyJSON(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s)
	return nil
}

func printTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)

	for i, h := range headers {
		bold.Fprint(w, h)
		if i < len(headers)-1 {
			fmt.Fprint(w, "\t")
		}
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, cell)
			if i < len(row)-1 {
				fmt.Fprint(w, "\t")
			}
		}
		fmt.Fprintln(w)
	}

	w.Flush()
}

// FormatAsJSON converts data to a compact JSON string
func FormatAsJSON(data any) (string, error) {
	b, err := jsonAPI.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FormatAsPrettyJSON converts data to an indented JSON string
func FormatAsPrettyJSON(data any) (string, error) {
	b, err := jsonAPI.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
