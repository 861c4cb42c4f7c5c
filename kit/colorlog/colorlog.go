// Package colorlog builds the zap loggers used across the app. Console
// output gets coloured levels only when it is going to a terminal.
package colorlog

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

type Options struct {
	Level zapcore.Level
	// Production JSON encoding instead of the console encoder.
	JSON bool
	// Defaults to os.Stderr.
	Writer io.Writer
}

func New(name string, opts ...Options) *zap.Logger {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	w := o.Writer
	if w == nil {
		w = os.Stderr
	}

	var encoder zapcore.Encoder
	if o.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		ec.EncodeCaller = nil
		ec.CallerKey = ""
		if IsTerminal(w) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			ec.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(ec)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(o.Level))
	return zap.New(core).Named(name)
}

func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
