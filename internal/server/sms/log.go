package sms

import (
	"context"

	"github.com/aidolab/mgstudio/internal/logging"
)

// LogSender writes the code to the log instead of sending an SMS. Meant for
// development and tests only.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, phone, code string) error {
	s.logger.Info(ctx, "sms code issued", "phone", phone, "code", code)
	return nil
}
