/*
Package process bridges one child process to a non-blocking consumer.

A Bridge owns the OS process and its three standard streams. Two reader
goroutines copy stdout and stderr into locked pending buffers as soon as the
OS delivers bytes; the owner drains them with TakeStdout and TakeStderr
without ever blocking. A waiter goroutine records the exit.

# Usage

	b, err := process.Spawn("dir /b", process.Options{Dir: cwd, Logger: log})
	if err != nil {
		return err
	}
	for !b.IsDead() {
		out := b.TakeStdout()
		errOut := b.TakeStderr()
		// ...
	}

Lines go through the platform command interpreter: cmd.exe /C on Windows,
started without a console window, and sh -c elsewhere. SpawnArgs skips the
interpreter.

# PTY Mode

With Options.PTY set, stdin and stdout share a pseudo-terminal so programs
that check isatty behave interactively. Stderr stays a pipe. Windows has no
PTY support here and falls back to pipes.
*/
package process
