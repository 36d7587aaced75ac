package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NobleMathews/dev-versioner/pkg/errors"
	"github.com/NobleMathews/dev-versioner/pkg/report"
	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

// outputOptions are the flags shared by commands that print results.
type outputOptions struct {
	format string
	output string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", string(report.FormatJSON), "output format: json, table, dot, svg")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "write the report to a file instead of stdout")
}

// writeResults renders results in format. A single successful JSON result
// is printed as the bare record.
func (c *CLI) writeResults(o outputOptions, format report.Format, results resolver.Results) error {
	var buf bytes.Buffer
	if format == report.FormatJSON && len(results) == 1 && results[0].Err == nil {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results[0].Record); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode record")
		}
	} else if err := report.Write(&buf, format, results); err != nil {
		return err
	}

	if o.output == "" {
		_, err := c.Out.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(o.output, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", o.output)
	}
	printSuccess("Wrote %s report", format)
	printFile(o.output)
	printStats(len(results), results.Failed())
	return nil
}

// resultsError summarizes failures. A lone package returns its own error.
func resultsError(results resolver.Results) error {
	failed := results.Failed()
	switch {
	case failed == 0:
		return nil
	case len(results) == 1:
		return results[0].Err
	default:
		return fmt.Errorf("%d of %d packages failed", failed, len(results))
	}
}
