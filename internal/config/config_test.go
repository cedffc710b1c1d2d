package config_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopfield/interview-engine/internal/config"
)

// validKey is base64url(0x00..0x1f), a syntactically valid 32-byte key.
const validKey = "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8"

var _ = Describe("Load", func() {
	var clearVars []string

	BeforeEach(func() {
		clearVars = []string{
			"ENGINE_ENV", "PORT", "STATE_ENCRYPTION_KEY", "STATE_ENCRYPTION_KEY_FILE",
			"ADMIN_API_KEY", "OTEL_EXPORTER_OTLP_ENDPOINT",
		}
		for _, v := range clearVars {
			os.Unsetenv(v)
		}
	})

	AfterEach(func() {
		for _, v := range clearVars {
			os.Unsetenv(v)
		}
	})

	It("defaults to development with no OTel endpoint", func() {
		os.Setenv("STATE_ENCRYPTION_KEY", validKey)

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.IsDevelopment()).To(BeTrue())
		Expect(cfg.IsProduction()).To(BeFalse())
		Expect(cfg.Port).To(Equal("8080"))
		Expect(cfg.OTel.Enabled()).To(BeFalse())
	})

	It("fails fast without an encryption key", func() {
		_, err := config.Load()
		Expect(err).To(HaveOccurred())
	})

	It("rejects a key of the wrong length", func() {
		os.Setenv("STATE_ENCRYPTION_KEY", "dG9vc2hvcnQ")
		_, err := config.Load()
		Expect(err).To(HaveOccurred())
	})

	It("honors ENGINE_ENV=production and an OTel endpoint", func() {
		os.Setenv("STATE_ENCRYPTION_KEY", validKey)
		os.Setenv("ENGINE_ENV", "production")
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")

		cfg, err := config.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.IsProduction()).To(BeTrue())
		Expect(cfg.OTel.Enabled()).To(BeTrue())
	})
})
