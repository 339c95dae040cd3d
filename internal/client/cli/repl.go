package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Verify(ctx context.Context) error
	ResendCode(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Open(ctx context.Context, path string) error
	WhoAmI(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the HomeFinder CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help               show available commands
//	  - open | go <path>   show a view, e.g. "open /properties"
//	  - whoami             print the current session
//	  - exit | quit        leave the program
//
//	Not logged in:
//	  - signup             create an account
//	  - verify             enter the emailed code for a pending signup
//	  - resend             send the code again
//	  - login              authenticate
//
//	Logged in:
//	  - profile [edit]     show or edit the profile
//	  - logout             log out
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("hf %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: open <path>, profile [edit], whoami, logout, exit")
			} else {
				printlnFn("Available commands: open <path>, signup, verify, resend, login, whoami, exit")
			}
			printlnFn("Views: /, /properties, /login, /signup, /dashboard, /profile, /agent, /admin")

		case "signup", "register":
			_ = a.Signup(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "resend":
			_ = a.ResendCode(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "profile":
			if len(args) > 0 && args[0] == "edit" {
				_ = a.EditProfile(ctx)
			} else {
				_ = a.Open(ctx, "/profile")
			}

		case "open", "go":
			if len(args) == 0 {
				printlnFn("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			// EOF after a final unterminated line
			return
		}
	}
}
