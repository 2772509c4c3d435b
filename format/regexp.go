// Package format holds the log format variants fed to a logtail.Pipeline.
package format

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/seedtray/logtail"
)

// Regexp extracts records with a pattern anchored at the front of the buffer.
// It provides Extract and Resync; variants embed it and add Filter and Reform.
type Regexp struct {
	anchored   *regexp.Regexp
	unanchored *regexp.Regexp
	names      []string
	// lineStart is set when the pattern only matches at the start of a line.
	lineStart bool
}

// NewRegexp compiles pattern. With dotAll set, "." also matches newlines.
func NewRegexp(pattern string, dotAll bool) (*Regexp, error) {
	flags := ""
	if dotAll {
		flags = "(?s)"
	}
	anchored, err := regexp.Compile(flags + `\A(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("could not compile pattern: %w", err)
	}
	// A leading anchor would pin the search to the resync point itself, so
	// it becomes a line-start anchor instead.
	bare := strings.TrimPrefix(strings.TrimPrefix(pattern, `\A`), "^")
	lineStart := bare != pattern
	if lineStart {
		flags += "(?m:^)"
	}
	unanchored, err := regexp.Compile(flags + `(?:` + bare + `)`)
	if err != nil {
		return nil, fmt.Errorf("could not compile pattern: %w", err)
	}
	return &Regexp{
		anchored:   anchored,
		unanchored: unanchored,
		names:      anchored.SubexpNames(),
		lineStart:  lineStart,
	}, nil
}

// Names lists the named groups of the pattern.
func (x *Regexp) Names() []string {
	var names []string
	for _, n := range x.names {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

func (x *Regexp) Extract(buf *logtail.StreamBuffer) []logtail.Record {
	var records []logtail.Record
	for {
		data := buf.Bytes()
		loc := x.anchored.FindSubmatchIndex(data)
		// An empty match would never advance.
		if loc == nil || loc[1] == 0 {
			return records
		}
		r := logtail.Record{
			Fields: make(map[string]string, len(x.names)),
			Raw:    string(data[:loc[1]]),
		}
		for i, name := range x.names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			r.Fields[name] = string(data[loc[2*i]:loc[2*i+1]])
		}
		records = append(records, r)
		buf.Consume(loc[1])
	}
}

// Resync returns the offset of the first complete record after the front,
// or 0 if there is none. Patterns anchored with ^ or \A only resume at the
// start of a line.
func (x *Regexp) Resync(buf *logtail.StreamBuffer) int {
	data := buf.Bytes()
	from := 1
	if x.lineStart {
		from = bytes.IndexByte(data, '\n') + 1
		if from == 0 {
			return 0
		}
	}
	if from >= len(data) {
		return 0
	}
	loc := x.unanchored.FindIndex(data[from:])
	if loc == nil {
		return 0
	}
	return from + loc[0]
}
