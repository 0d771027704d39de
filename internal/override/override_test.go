package override_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/haproxy-status/internal/override"
)

var _ = Describe("Checker", func() {
	var (
		dir     string
		checker *override.Checker
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "override-test-*")
		Expect(err).NotTo(HaveOccurred())
		checker = override.New(dir, "eduid", slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("should not force down without markers", func() {
		Expect(checker.IsForcedDown()).To(BeFalse())
		Expect(checker.Check().Path).To(BeEmpty())
	})

	It("should force down on the service marker", func() {
		path := write("eduid", "")
		res := checker.Check()
		Expect(res.ForcedDown).To(BeTrue())
		Expect(res.Path).To(Equal(path))
	})

	It("should force down on the common marker", func() {
		path := write(override.CommonMarker, "")
		res := checker.Check()
		Expect(res.ForcedDown).To(BeTrue())
		Expect(res.Path).To(Equal(path))
	})

	It("should prefer the service marker when both exist", func() {
		path := write("eduid", "")
		write(override.CommonMarker, "")
		Expect(checker.Check().Path).To(Equal(path))
	})

	It("should ignore markers for other services", func() {
		write("other-service", "")
		Expect(checker.IsForcedDown()).To(BeFalse())
	})

	It("should decode marker content", func() {
		write("eduid", "reason: maintenance\nexpires: \"2026-10-15T00:00:00Z\"\n")
		res := checker.Check()
		Expect(res.ForcedDown).To(BeTrue())
		Expect(res.Marker.Reason).To(Equal("maintenance"))
	})

	It("should treat malformed content as present", func() {
		write("eduid", "reason: [unterminated\n")
		Expect(checker.IsForcedDown()).To(BeTrue())
	})

	It("should treat an unreadable marker as present", func() {
		Expect(os.Mkdir(filepath.Join(dir, override.CommonMarker), 0755)).To(Succeed())
		Expect(checker.IsForcedDown()).To(BeTrue())
	})

	Context("without a service name", func() {
		BeforeEach(func() {
			checker = override.New(dir, "", nil)
		})

		It("should only check the common marker", func() {
			write("eduid", "")
			Expect(checker.IsForcedDown()).To(BeFalse())

			write(override.CommonMarker, "")
			Expect(checker.IsForcedDown()).To(BeTrue())
		})
	})
})
