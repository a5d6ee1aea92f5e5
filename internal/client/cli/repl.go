package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// repl starts the read–eval–print loop. Each command is a view; the
// prompt shows who is logged in. The loop exits on EOF or "exit"/"quit".
func (a *App) repl(ctx context.Context) {
	fmt.Fprintln(a.out, "DocVault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner, a.out)
}

func (a *App) status() string {
	if u := a.session.User(); u != nil {
		return "(" + u.Email + ")"
	}
	return ""
}

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a stub.
type execIface interface {
	isLoggedIn() bool
	guard(ctx context.Context, view func(context.Context) error) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	VerifyOTP(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Create(ctx context.Context) error
	Update(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// runREPL reads a line, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back.
//
// Commands when not logged in: register, login, forgot, verify, reset.
// Commands when logged in: list, show, create, update, delete, logout.
// Protected commands go through the route guard on every dispatch, so a
// stale prompt cannot reach a protected view after logout.
//
// Errors returned by command handlers are ignored here; views surface
// their own messages. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	for {
		fmt.Fprintf(w, "docvault %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: (l)ist, show <id>, create, update <id>, delete <id>, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, forgot, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "forgot":
			_ = a.ForgotPassword(ctx)

		case "verify":
			_ = a.VerifyOTP(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "l", "list":
			_ = a.guard(ctx, a.List)

		case "show":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: show <id>")
				continue
			}
			_ = a.guard(ctx, func(ctx context.Context) error { return a.Show(ctx, args[0]) })

		case "create":
			_ = a.guard(ctx, a.Create)

		case "update":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: update <id>")
				continue
			}
			_ = a.guard(ctx, func(ctx context.Context) error { return a.Update(ctx, args[0]) })

		case "delete":
			if len(args) == 0 {
				fmt.Fprintln(w, "Usage: delete <id>")
				continue
			}
			_ = a.guard(ctx, func(ctx context.Context) error { return a.Delete(ctx, args[0]) })

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
