package diag

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
)

func TestFile(t *testing.T) {
	g := NewGomegaWithT(t)
	file := filepath.Join(t.TempDir(), "logtail.log")

	logger, closer := New(Config{File: file, MaxSizeMB: 1}, "tail")
	logger.Printf("following %s", "/var/log/app.log")
	g.Expect(closer.Close()).To(Succeed())

	data, err := os.ReadFile(file)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(data)).To(HavePrefix("[tail] "))
	g.Expect(string(data)).To(HaveSuffix("following /var/log/app.log\n"))
}

func TestQuiet(t *testing.T) {
	g := NewGomegaWithT(t)
	file := filepath.Join(t.TempDir(), "logtail.log")

	logger, closer := New(Config{File: file, Quiet: true}, "tail")
	logger.Print("nothing")
	g.Expect(closer.Close()).To(Succeed())

	_, err := os.Stat(file)
	g.Expect(os.IsNotExist(err)).To(BeTrue())
}
