/*
Package interpreter turns submitted input lines into actions on a session.

A line is split into arguments by Tokenize. A handful of built-ins run
in-process:

	argv        write each argument followed by "&", then a newline
	cls, clear  empty the visible output
	exit        stop the session
	cd..        change to the parent directory
	cd <path>   change directory; relative to the current one

Anything else is handed, as typed, to the platform command interpreter in a
new process.Bridge which the session then drives. When nothing was spawned a
prompt (the working directory followed by a marker, ">" by default) is
written so the user can type the next line.

The working directory is reached through WorkDir so tests and embedders can
keep it away from the real process state.
*/
package interpreter
