// Package console drives a session from a text terminal.
//
// The Driver reads keystrokes, feeds them to the session and interpreter,
// ticks the session at a fixed frame rate and writes output changes back to
// the terminal. It stands in for a graphical front end: it knows nothing
// about processes beyond what the session exposes.
//
// Keys:
//
//	Enter      submit the input line
//	Backspace  delete the last typed character
//	Escape     restart the startup command
//	Ctrl-C     kill the attached process
//	Ctrl-D     close the attached process's input, or quit when idle
package console
