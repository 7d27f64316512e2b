// Package diag provides the structured logger shared by the compiler, the
// VM and the CLI. It never touches the user-facing stdout/stderr streams
// specified by spec.md §6.4 — those go straight through io.Writer
// parameters supplied by the caller; this logger is purely internal
// observability (panic-mode trace, opcode dispatch trace, CLI lifecycle).
package diag

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

// New builds a logger that writes single-line, human-readable entries to w
// at the given level. A nil w defaults to os.Stderr.
func New(level logrus.Level, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&easy.Formatter{
		TimestampFormat: "15:04:05",
		LogFormat:       "[%lvl%] %time% %msg%\n",
	})
	return l
}

// Discard returns a logger that drops everything, used by clirun.Cmd when
// its Log field is nil so a nil *logrus.Logger is never passed around and
// every call site can log unconditionally.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
