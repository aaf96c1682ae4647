// Package model defines core data structures for rspeclint.
package model

// CopName is the qualified name reported with every offense.
const CopName = "RSpec/ExampleWithoutDescription"

// Point is a source position. Line and Column are 1-based; Column counts bytes.
type Point struct {
	Line   int
	Column int
}

// Range is a half-open source span.
type Range struct {
	Start     Point
	End       Point
	StartByte int
	EndByte   int
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int {
	return r.EndByte - r.StartByte
}

// SingleLine reports whether the range starts and ends on the same line.
func (r Range) SingleLine() bool {
	return r.Start.Line == r.End.Line
}

// Offense is a single reported rule violation.
type Offense struct {
	Cop         string
	Message     string
	Range       Range
	SourceLine  string // text of Range.Start.Line, without the newline
	Correctable bool
}

// FileReport holds the offenses found in one inspected file.
type FileReport struct {
	Path     string
	Offenses []Offense
}

// Report is the result of a lint run, ready for formatting.
type Report struct {
	Style     string
	Files     []FileReport
	Inspected int
}

// OffenseCount returns the total number of offenses across all files.
func (r *Report) OffenseCount() int {
	n := 0
	for i := range r.Files {
		n += len(r.Files[i].Offenses)
	}
	return n
}
