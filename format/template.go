package format

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/seedtray/logtail"
)

// Template is a format built entirely from configuration: a pattern, a
// text/template over the captured fields, and per-field match rules.
type Template struct {
	*Regexp
	tmpl  *template.Template
	match map[string]*regexp.Regexp
}

// NewTemplate builds a Template. An empty text renders the raw match. A
// record passes the filter when every field named in match matches its
// expression.
func NewTemplate(pattern string, dotAll bool, text string, match map[string]string) (*Template, error) {
	re, err := NewRegexp(pattern, dotAll)
	if err != nil {
		return nil, err
	}
	t := &Template{Regexp: re}
	if text != "" {
		t.tmpl, err = template.New("reform").Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("could not parse template: %w", err)
		}
	}
	if len(match) > 0 {
		known := make(map[string]bool)
		for _, n := range re.Names() {
			known[n] = true
		}
		t.match = make(map[string]*regexp.Regexp, len(match))
		for field, expr := range match {
			if !known[field] {
				return nil, fmt.Errorf("match on unknown field %q (have %s)", field, strings.Join(re.Names(), ", "))
			}
			m, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("could not compile match for %q: %w", field, err)
			}
			t.match[field] = m
		}
	}
	return t, nil
}

func (t *Template) Filter(r logtail.Record) bool {
	for field, m := range t.match {
		if !m.MatchString(r.Get(field)) {
			return false
		}
	}
	return true
}

// Reform renders the template. If execution fails the raw match is returned
// so no accepted record is lost.
func (t *Template) Reform(r logtail.Record) string {
	if t.tmpl == nil {
		return strings.TrimRight(r.Raw, "\n")
	}
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, r.Fields); err != nil {
		return strings.TrimRight(r.Raw, "\n")
	}
	return sb.String()
}

