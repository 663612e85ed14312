package main

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-logfmt/logfmt"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/pkg/daemon"
)

type logTermEncoder struct {
	*logfmt.Encoder
	buf bytes.Buffer
}

func (l *logTermEncoder) Reset() {
	l.Encoder.Reset()
	l.buf.Reset()
}

var logTermEncoderPool = sync.Pool{
	New: func() interface{} {
		var enc logTermEncoder
		enc.Encoder = logfmt.NewEncoder(&enc.buf)
		return &enc
	},
}

type logTermFormatter struct {
	mutex sync.Mutex
	out   io.Writer
}

// NewLogTermFormatter returns a logger that encodes keyvals to the Writer in
// logfmt format. Records at the warn and error levels are marked, so they
// stand out on a terminal. Each record produces a single call to Write.
func NewLogTermFormatter(out io.Writer) log.Logger {
	return &logTermFormatter{
		out: out,
	}
}

func (l *logTermFormatter) Log(keyvals ...interface{}) error {
	enc := logTermEncoderPool.Get().(*logTermEncoder)
	enc.Reset()
	defer logTermEncoderPool.Put(enc)

	if err := enc.EncodeKeyvals(keyvals...); err != nil {
		return err
	}
	if err := enc.EndRecord(); err != nil {
		return err
	}

	var marker string
	for i := 0; i < len(keyvals)-1; i += 2 {
		if keyvals[i] != level.Key() {
			continue
		}
		if value, ok := keyvals[i+1].(fmt.Stringer); ok {
			switch value.String() {
			case "warn":
				marker = "! "
			case "error":
				marker = "!! "
			}
		}
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	_, err := fmt.Fprint(l.out, marker, enc.buf.String())
	return err
}

func newLogger(out io.Writer, levelName string) (log.Logger, error) {
	option, err := daemon.ParseLogLevel(levelName)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	logger := NewLogTermFormatter(out)
	logger = log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"uid", uuid.NewRandom().String(),
	)
	return level.NewFilter(logger, option), nil
}
