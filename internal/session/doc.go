// Package session holds the terminal-like state of one shell session: the
// bounded visible output, the input line being typed, an event queue for
// the presentation layer and at most one attached process.Bridge.
//
// A Session is driven by a single goroutine. Each Tick pulls pending child
// output into the buffer, notices when the child is gone and trims the
// buffer back to its configured size.
package session
