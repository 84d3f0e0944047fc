package tja

import (
	"fmt"
	"strings"
)

// ParseError represents a fatal problem in a TJA source, located by course,
// measure and line.
type ParseError struct {
	// Course is the course the error belongs to (e.g. "Oni", "HardP1").
	Course string

	// Measure is the 0-indexed measure number, or -1 when not inside note data.
	Measure int

	// Line is the 1-indexed source line number, or 0 when unknown.
	Line int

	// Message is the human-readable error description.
	Message string

	// Context contains the source lines around the error with a pointer to
	// the offending line.
	Context string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var loc []string
	if e.Course != "" {
		loc = append(loc, "course "+e.Course)
	}
	if e.Measure >= 0 {
		loc = append(loc, fmt.Sprintf("measure %d", e.Measure))
	}
	if e.Line > 0 {
		loc = append(loc, fmt.Sprintf("line %d", e.Line))
	}
	msg := e.Message
	if len(loc) > 0 {
		msg = fmt.Sprintf("%s: %s", strings.Join(loc, ", "), e.Message)
	}
	if e.Context != "" {
		return msg + "\n" + e.Context
	}
	return msg
}

// GenerateErrorContext generates source context around an error line.
// It includes 2 lines before and 2 lines after the error line, with line
// numbers and a marker on the error line.
//
// Example output:
//
//	  2 | #START
//	  3 | 1010,
//	> 4 | #BRANCHSTART x,1,2
//	  5 | #N
//	  6 | 1111,
func GenerateErrorContext(source string, line int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	lineNumWidth := len(fmt.Sprintf("%d", end))

	var buf strings.Builder
	for i := start; i < end; i++ {
		lineNum := i + 1
		if lineNum == line {
			buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lines[i]))
		} else {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lines[i]))
		}
	}
	return buf.String()
}
