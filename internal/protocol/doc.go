// Package protocol builds command lines for the world server and parses its
// one-line text responses.
//
// Response text is the fragile edge of the system: each command family has
// its own grammar ("Successfully filled 1000 block(s)", "Gamerule
// doDaylightCycle is currently set to: false", "Test passed"). Parsing is
// isolated here behind one parser per family; a line that matches no known
// grammar degrades to a typed protocol error instead of leaking raw text
// into caller code.
package protocol
