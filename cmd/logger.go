package cmd

import (
	"log/slog"

	"go.uber.org/fx/fxevent"
)

func fxLogger() fxevent.Logger {
	return &fxevent.SlogLogger{Logger: slog.Default()}
}
