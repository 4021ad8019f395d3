package graphfile

import (
	"errors"
	"strconv"
)

// ErrParse matches every *ParseError with errors.Is.
var ErrParse = errors.New("invalid graph definition")

// ParseError is returned when a graph-definition file cannot be read
// into a graph.
type ParseError struct {
	// Path of the file, if known.
	Path string
	// Line on which the error occurred, or 0 if the format
	// does not report lines.
	Line int
	// The part of the input where the error occurred.
	Token string
	// Any underlying error that may have occurred when parsing.
	Reason error
	// Additional details about the error.
	Explanation string
}

func (p *ParseError) Error() string {
	r := ErrParse.Error()
	if p.Path != "" {
		r += " " + p.Path
		if p.Line > 0 {
			r += ":" + strconv.Itoa(p.Line)
		}
	} else if p.Line > 0 {
		r += " on line " + strconv.Itoa(p.Line)
	}
	if p.Explanation != "" {
		r += ": " + p.Explanation
	}
	if p.Token != "" {
		r += " (in \"" + p.Token + "\")"
	}
	if p.Reason != nil {
		r += ": " + p.Reason.Error()
	}
	return r
}

func (p *ParseError) Unwrap() error {
	return p.Reason
}

func (p *ParseError) Is(target error) bool {
	return target == ErrParse
}
