package format

import (
	"fmt"

	"github.com/seedtray/logtail"
)

// UWSGIPattern matches one uWSGI request log entry, including any free-form
// message lines the application printed before it.
const UWSGIPattern = `(?P<main>(?P<message>.*?)\[pid: (?P<pid>\d+?)\|app: (?P<app>\d+?)\|req: (?P<req>[\d/]+?)\] (?P<remote_ip>\d+\.\d+\.\d+\.\d+) \(\) \{(?P<vars>\d+?) vars in (?P<bytes>\d+?) bytes\} \[(?P<datetime>\w+? \w+? \d+? \d+?:\d+?:\d+? \d+?)\] (?P<method>\w+?) (?P<address>[\w/]+?) => generated \d+ bytes in (?P<msecs>\d+?) msecs \(HTTP/[\d\.]+? (?P<response_code>\d+?)\) \d+ headers in \d+ bytes \((?P<switches>\d+) \w+ on core (?P<core>\d+)\)\n)`

// UWSGI is the uWSGI request log format.
type UWSGI struct {
	*Regexp
	codes map[string]bool
}

// NewUWSGI builds the format. Only records whose response code is in codes
// are forwarded; with no codes every record is.
func NewUWSGI(codes []string) (*UWSGI, error) {
	re, err := NewRegexp(UWSGIPattern, true)
	if err != nil {
		return nil, err
	}
	u := &UWSGI{Regexp: re}
	if len(codes) > 0 {
		u.codes = make(map[string]bool, len(codes))
		for _, c := range codes {
			u.codes[c] = true
		}
	}
	return u, nil
}

func (u *UWSGI) Filter(r logtail.Record) bool {
	if u.codes == nil {
		return true
	}
	return u.codes[r.Get("response_code")]
}

func (u *UWSGI) Reform(r logtail.Record) string {
	return fmt.Sprintf("[%s] (%s %s) %sms, %sbytes, msg : \n %s",
		r.Get("response_code"), r.Get("method"), r.Get("address"),
		r.Get("msecs"), r.Get("bytes"), r.Get("message"))
}
