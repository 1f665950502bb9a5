package interop

// Delimiter frames the console output of a call.
const Delimiter = "-------------------------------------------------"

// Console is the host-visible log channel of the module.
type Console interface {
	Log(msg string)
}

// ConsoleFunc adapts a function to Console.
type ConsoleFunc func(msg string)

// Log calls f(msg).
func (f ConsoleFunc) Log(msg string) {
	f(msg)
}

type discard struct{}

func (discard) Log(string) {}

// Discard drops every message.
var Discard Console = discard{}
