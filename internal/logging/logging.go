package logging

import (
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mohammad-safakhou/readmode/config"
)

// Setup points the standard logger at stderr, or at a rotating file when
// cfg.LogFile is set. Component loggers built afterwards with New inherit the
// destination. The returned closer releases the file.
func Setup(cfg config.GeneralConfig) io.Closer {
	flags := log.LstdFlags
	if cfg.Debug {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)

	if strings.TrimSpace(cfg.LogFile) == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB, // megabytes
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(file)
	return file
}

// New returns a logger that writes to the current standard destination with
// a bracketed component prefix, e.g. New("HTTP") logs as "[HTTP] ...".
func New(component string) *log.Logger {
	return log.New(log.Writer(), "["+strings.ToUpper(component)+"] ", log.Flags())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
