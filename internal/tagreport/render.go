package tagreport

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", errors.Errorf("unknown format %q (supported: %s, %s)", s, FormatText, FormatJSON)
	}
}

// Write renders records in the requested format.
func Write(w io.Writer, format Format, records []Record) error {
	switch format {
	case FormatText:
		return writeText(w, records)
	case FormatJSON:
		return writeJSON(w, records)
	default:
		return errors.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, records []Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TAG\tDIGEST\tLAST UPDATED\tARCHITECTURES")
	for _, r := range records {
		var updated string
		if !r.LastUpdated.IsZero() {
			updated = r.LastUpdated.UTC().Format(time.RFC3339)
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, r.Digest, updated, strings.Join(r.Architectures, ","))
	}

	return tw.Flush()
}

func writeJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(records)
}
