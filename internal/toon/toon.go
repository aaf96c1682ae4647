// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/rspeclint/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("style: %s", encodeValue(r.Style)))
	parts = append(parts, fmt.Sprintf("inspected: %d", r.Inspected))

	var rows [][]any
	for i := range r.Files {
		fr := &r.Files[i]
		for j := range fr.Offenses {
			o := &fr.Offenses[j]
			rows = append(rows, []any{
				fr.Path,
				o.Range.Start.Line,
				o.Range.Start.Column,
				o.Range.Len(),
				o.Message,
				o.Correctable,
			})
		}
	}
	parts = append(parts, formatTabular("offenses", []string{"file", "line", "column", "length", "message", "correctable"}, rows))

	return strings.Join(parts, "\n")
}

// formatTabular renders a TOON table. String cells are quoted as needed;
// numbers and booleans are written as primitives.
func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			if s, ok := cell.(string); ok {
				encoded[i] = encodeValue(s)
			} else {
				encoded[i] = fmt.Sprint(cell)
			}
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
