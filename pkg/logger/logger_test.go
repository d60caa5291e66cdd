package logger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/ctava-msft/gloss/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("NewLoggerWithWriters", func() {
		It("writes info records to the provided writer", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Info("hello", zap.String("key", "value"))

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("suppresses debug records at info level", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Debug("hidden")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		})

		It("emits debug records when debug is enabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("visible")

			Expect(buf.String()).To(ContainSubstring("visible"))
		})

		It("duplicates records to every writer", func() {
			var a, b bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &a, &b)
			l.Info("fan-out")

			Expect(a.String()).To(ContainSubstring("fan-out"))
			Expect(b.String()).To(ContainSubstring("fan-out"))
		})
	})
})
