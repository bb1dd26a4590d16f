package logger

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ = Describe("Logger Environment", func() {
	DescribeTable("preset configs",
		func(build func() zap.Config, level zapcore.Level, encoding string, quiet bool, outputs []string) {
			cfg := build()

			Expect(cfg.Level.Level()).To(Equal(level))
			Expect(cfg.Encoding).To(Equal(encoding))
			Expect(cfg.DisableCaller).To(Equal(quiet))
			Expect(cfg.DisableStacktrace).To(Equal(quiet))
			if len(outputs) == 0 {
				Expect(cfg.OutputPaths).To(BeEmpty())
				Expect(cfg.ErrorOutputPaths).To(BeEmpty())
			} else {
				Expect(cfg.OutputPaths).To(Equal(outputs))
				Expect(cfg.ErrorOutputPaths).To(Equal([]string{"stderr"}))
			}
		},
		Entry("production", newProductionLoggerConfig, zap.InfoLevel, "json", false, []string{"stdout"}),
		Entry("staging", newStagingLoggerConfig, zap.InfoLevel, "json", true, []string{"stdout"}),
		Entry("development", newDevelopmentLoggerConfig, zap.DebugLevel, "console", true, []string{"stdout"}),
		Entry("test", newTestLoggerConfig, zap.InfoLevel, "json", false, nil),
	)

	It("samples production logs", func() {
		cfg := newProductionLoggerConfig()

		Expect(cfg.Sampling).NotTo(BeNil())
		Expect(cfg.Sampling.Initial).To(Equal(100))
		Expect(newTestLoggerConfig().Sampling).To(BeNil())
	})

	It("stamps entries with an ISO8601 time key", func() {
		enc := newEncoderConfig()

		Expect(enc.TimeKey).To(Equal("time"))
		Expect(enc.EncodeTime).NotTo(BeNil())
	})

	It("marks only the development preset as development", func() {
		Expect(newDevelopmentLoggerConfig().Development).To(BeTrue())
		Expect(newProductionLoggerConfig().Development).To(BeFalse())
	})
})
