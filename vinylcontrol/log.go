package vinylcontrol

import (
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger returns a logger for a host to pass to NewDeck: leveled,
// prefixed, writing to stderr so it never competes with anything the
// host prints to stdout. A Deck constructed with a nil logger uses
// discardLogger instead.
//
// The teacher's own textcolor.go/dw_printf scheme is a stub carried over
// from a C preprocessor macro ("// TODO KG"); charmbracelet/log is already
// declared in the module's dependency stack and is what real leveled
// logging looks like here.
func NewLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "vinylcontrol",
		Level:  log.InfoLevel,
	})
}

// discardLogger is used in tests and wherever a Deck is constructed
// without an explicit logger and without wanting stderr noise.
func discardLogger() *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{Prefix: "vinylcontrol"})
	l.SetLevel(log.FatalLevel + 1)
	return l
}
