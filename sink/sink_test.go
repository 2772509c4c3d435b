package sink

import (
	"bytes"
	"testing"

	. "github.com/onsi/gomega"
)

func TestWriter(t *testing.T) {
	g := NewGomegaWithT(t)
	var out bytes.Buffer
	s := NewWriter(&out)

	g.Expect(s.Emit("[200] (GET /) 1ms")).To(Succeed())
	g.Expect(s.Emit("second")).To(Succeed())
	g.Expect(s.Close()).To(Succeed())
	g.Expect(out.String()).To(Equal("[200] (GET /) 1ms\nsecond\n"))
}

func TestNew(t *testing.T) {
	g := NewGomegaWithT(t)
	var out bytes.Buffer

	s, err := New(Config{Kind: KindStdout}, &out, nil)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(s.Emit("x")).To(Succeed())
	g.Expect(out.String()).To(Equal("x\n"))

	_, err = New(Config{Kind: "kafka"}, &out, nil)
	g.Expect(err).To(MatchError(`unknown sink "kafka"`))
}
