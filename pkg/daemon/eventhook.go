package daemon

import (
	"fmt"

	"github.com/go-kit/kit/log"
	internalevents "github.com/spoke-d/dispatchd/internal/events"
)

// NewLoggingHook returns a logger that publishes every record as a
// "logging" event, so listeners can follow the daemon log.
func NewLoggingHook(sender internalevents.Sender) log.Logger {
	return log.LoggerFunc(func(keyvals ...interface{}) error {
		record := make(map[string]string, len(keyvals)/2)
		for i := 0; i < len(keyvals)-1; i += 2 {
			record[fmt.Sprint(keyvals[i])] = fmt.Sprint(keyvals[i+1])
		}
		sender.Send(internalevents.TypeLogging, "log", record)
		return nil
	})
}

// tee writes every record to both loggers.
func tee(a, b log.Logger) log.Logger {
	return log.LoggerFunc(func(keyvals ...interface{}) error {
		b.Log(keyvals...)
		return a.Log(keyvals...)
	})
}
