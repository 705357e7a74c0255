package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func InitLog(service string) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	Logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", service).Logger()
	return &Logger
}
