package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/seedtray/logtail"
	"github.com/seedtray/logtail/format"
	"github.com/seedtray/logtail/sink"
)

const sample = `
tail:
  path: /var/log/app/uwsgi.log
  wait_timeout: 100ms
  from_start: true
format:
  name: uwsgi
  codes: ["500", "502"]
sink:
  kind: stdout
log:
  quiet: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "logtail.yaml")
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoadDefaults(t *testing.T) {
	g := NewGomegaWithT(t)
	t.Setenv("LOGTAIL_TAIL_PATH", "/tmp/app.log")

	cfg, err := Load("", nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cfg.Tail.Path).To(Equal("/tmp/app.log"))
	g.Expect(cfg.Tail.BlockSize).To(Equal(logtail.DefaultBlockSize))
	g.Expect(cfg.Tail.WaitTimeout).To(Equal(logtail.DefaultWaitTimeout))
	g.Expect(cfg.Tail.MissingBackoff).To(Equal(logtail.DefaultMissingBackoff))
	g.Expect(cfg.Tail.MaxPending).To(Equal(logtail.DefaultMaxPending))
	g.Expect(cfg.Format.Name).To(Equal(format.NameUWSGI))
	g.Expect(cfg.Sink.Kind).To(Equal(sink.KindSyslog))
	g.Expect(cfg.Sink.Ident).To(Equal("uWSGI"))
	g.Expect(cfg.Sink.Console).To(BeTrue())
}

func TestLoadFile(t *testing.T) {
	g := NewGomegaWithT(t)

	cfg, err := Load(writeConfig(t, sample), nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cfg.Tail.Path).To(Equal("/var/log/app/uwsgi.log"))
	g.Expect(cfg.Tail.WaitTimeout).To(Equal(100 * time.Millisecond))
	g.Expect(cfg.Tail.FromStart).To(BeTrue())
	g.Expect(cfg.Format.Codes).To(Equal([]string{"500", "502"}))
	g.Expect(cfg.Sink.Kind).To(Equal(sink.KindStdout))
	g.Expect(cfg.Log.Quiet).To(BeTrue())
}

func TestLoadPrecedence(t *testing.T) {
	g := NewGomegaWithT(t)
	file := writeConfig(t, sample)
	t.Setenv("LOGTAIL_SINK_KIND", "syslog")
	t.Setenv("LOGTAIL_TAIL_PATH", "/from/env.log")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	g.Expect(fs.Parse([]string{"--path", "/from/flag.log"})).To(Succeed())

	cfg, err := Load(file, fs)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cfg.Tail.Path).To(Equal("/from/flag.log"))
	g.Expect(cfg.Sink.Kind).To(Equal(sink.KindSyslog))
	// Unset flags do not shadow the file.
	g.Expect(cfg.Tail.WaitTimeout).To(Equal(100 * time.Millisecond))
}

func TestLoadCodesFromEnv(t *testing.T) {
	g := NewGomegaWithT(t)
	t.Setenv("LOGTAIL_TAIL_PATH", "/tmp/app.log")
	t.Setenv("LOGTAIL_FORMAT_CODES", "500,502")

	cfg, err := Load("", nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cfg.Format.Codes).To(Equal([]string{"500", "502"}))
}

func TestLoadErrors(t *testing.T) {
	g := NewGomegaWithT(t)

	_, err := Load("", nil)
	g.Expect(err).To(MatchError("tail.path is required"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	g.Expect(err).To(MatchError(ContainSubstring("failed to read config")))

	file := writeConfig(t, "tail:\n  path: /a.log\nformat:\n  name: template\n")
	_, err = Load(file, nil)
	g.Expect(err).To(MatchError("format.pattern is required for the template format"))
}
