package assert

import "github.com/stridesim/stride/serror"

// Enabled gates invariant assertions. Release builds leave this off so a
// violated invariant short-circuits instead of crashing the simulation.
var Enabled = false

func IsTrue(ok bool, message string, args ...interface{}) {
	if Enabled && !ok {
		panic(serror.New(message, args...))
	}
}
