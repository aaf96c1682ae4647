// Package format renders lint reports for the terminal and for tools.
package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phobologic/rspeclint/internal/model"
	"github.com/phobologic/rspeclint/internal/toon"
)

// ErrUnknownFormat is returned by Write for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown format")

// Names lists the supported formats.
var Names = []string{"text", "json", "toon"}

// Options tweak rendering.
type Options struct {
	Color bool
}

var (
	severityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	caretStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Write renders r in the named format.
func Write(w io.Writer, name string, r *model.Report, opts Options) error {
	switch name {
	case "text":
		return Text(w, r, opts)
	case "json":
		return JSON(w, r)
	case "toon":
		_, err := fmt.Fprintln(w, toon.Encode(r))
		return err
	}
	return fmt.Errorf("%w %q (want one of %s)", ErrUnknownFormat, name, strings.Join(Names, ", "))
}

// Text renders RuboCop-style clang output followed by a summary line.
func Text(w io.Writer, r *model.Report, opts Options) error {
	paint := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	for i := range r.Files {
		fr := &r.Files[i]
		for j := range fr.Offenses {
			o := &fr.Offenses[j]
			fmt.Fprintf(&b, "%s:%d:%d: %s: %s: %s\n",
				paint(pathStyle, fr.Path),
				o.Range.Start.Line, o.Range.Start.Column,
				paint(severityStyle, "C"),
				o.Cop, o.Message)
			if o.SourceLine != "" {
				b.WriteString(o.SourceLine)
				b.WriteByte('\n')
				b.WriteString(strings.Repeat(" ", o.Range.Start.Column-1))
				b.WriteString(paint(caretStyle, strings.Repeat("^", caretWidth(o))))
				b.WriteByte('\n')
			}
		}
	}

	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s inspected, %s detected\n",
		plural(r.Inspected, "file"), plural(r.OffenseCount(), "offense"))

	_, err := io.WriteString(w, b.String())
	return err
}

// caretWidth clips multi-line ranges to the end of the first line.
func caretWidth(o *model.Offense) int {
	n := o.Range.Len()
	if rest := len(o.SourceLine) - (o.Range.Start.Column - 1); n > rest {
		n = rest
	}
	if n < 1 {
		n = 1
	}
	return n
}

func plural(n int, noun string) string {
	switch n {
	case 0:
		return "no " + noun + "s"
	case 1:
		return "1 " + noun
	default:
		return fmt.Sprintf("%d %ss", n, noun)
	}
}

type jsonReport struct {
	Metadata jsonMetadata `json:"metadata"`
	Files    []jsonFile   `json:"files"`
	Summary  jsonSummary  `json:"summary"`
}

type jsonMetadata struct {
	Cop           string `json:"cop"`
	EnforcedStyle string `json:"enforced_style"`
}

type jsonFile struct {
	Path     string        `json:"path"`
	Offenses []jsonOffense `json:"offenses"`
}

type jsonOffense struct {
	Severity    string       `json:"severity"`
	Message     string       `json:"message"`
	CopName     string       `json:"cop_name"`
	Correctable bool         `json:"correctable"`
	Location    jsonLocation `json:"location"`
}

type jsonLocation struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	LastLine    int `json:"last_line"`
	LastColumn  int `json:"last_column"`
	Length      int `json:"length"`
}

type jsonSummary struct {
	OffenseCount       int `json:"offense_count"`
	InspectedFileCount int `json:"inspected_file_count"`
}

// JSON renders r as an indented JSON document.
func JSON(w io.Writer, r *model.Report) error {
	out := jsonReport{
		Metadata: jsonMetadata{Cop: model.CopName, EnforcedStyle: r.Style},
		Files:    make([]jsonFile, 0, len(r.Files)),
		Summary: jsonSummary{
			OffenseCount:       r.OffenseCount(),
			InspectedFileCount: r.Inspected,
		},
	}
	for i := range r.Files {
		fr := &r.Files[i]
		jf := jsonFile{Path: fr.Path, Offenses: make([]jsonOffense, 0, len(fr.Offenses))}
		for j := range fr.Offenses {
			o := &fr.Offenses[j]
			jf.Offenses = append(jf.Offenses, jsonOffense{
				Severity:    "convention",
				Message:     o.Message,
				CopName:     o.Cop,
				Correctable: o.Correctable,
				Location: jsonLocation{
					StartLine:   o.Range.Start.Line,
					StartColumn: o.Range.Start.Column,
					LastLine:    o.Range.End.Line,
					LastColumn:  o.Range.End.Column - 1,
					Length:      o.Range.Len(),
				},
			})
		}
		out.Files = append(out.Files, jf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
