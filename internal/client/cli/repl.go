package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. Each handler gets
// the command's arguments.
type execIface interface {
	isUnlocked() bool
	Status(ctx context.Context, args []string) error
	Setup(ctx context.Context, args []string) error
	Unlock(ctx context.Context, args []string) error
	Lock(ctx context.Context, args []string) error
	ChangePassword(ctx context.Context, args []string) error
	Find(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Capture(ctx context.Context, args []string) error
	Save(ctx context.Context, args []string) error
	Pending(ctx context.Context, args []string) error
	Confirm(ctx context.Context, args []string) error
	Dismiss(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Generate(ctx context.Context, args []string) error
}

var errUsage = errors.New("usage")

// runREPL reads commands from reader until EOF or "exit"/"quit" and
// dispatches them to a. Handler errors are printed and the loop continues.
//
//	Always:
//	  help, status, generate [length], pending, dismiss, capture, exit | quit
//	Locked or new vault:
//	  setup, unlock
//	Unlocked:
//	  lock, passwd, find <domain>, list, show <id>, save, confirm, delete <id>
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "pv %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var handler func(context.Context, []string) error
		switch cmd {
		case "help":
			if a.isUnlocked() {
				fmt.Fprintln(w, "Available commands: status, lock, passwd, find, list, show, capture, save, pending, confirm, dismiss, delete, generate, exit")
			} else {
				fmt.Fprintln(w, "Available commands: status, setup, unlock, capture, pending, dismiss, generate, exit")
			}
			continue
		case "status":
			handler = a.Status
		case "setup":
			handler = a.Setup
		case "unlock":
			handler = a.Unlock
		case "lock":
			handler = a.Lock
		case "passwd":
			handler = a.ChangePassword
		case "find":
			handler = a.Find
		case "l", "list":
			handler = a.List
		case "show":
			handler = a.Show
		case "capture":
			handler = a.Capture
		case "save":
			handler = a.Save
		case "pending":
			handler = a.Pending
		case "confirm":
			handler = a.Confirm
		case "dismiss":
			handler = a.Dismiss
		case "delete":
			handler = a.Delete
		case "generate":
			handler = a.Generate
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
			continue
		}

		if err := handler(ctx, args); err != nil {
			if errors.Is(err, errUsage) {
				fmt.Fprintln(w, err.Error())
			} else {
				fmt.Fprintln(w, "Error:", err.Error())
			}
		}
	}
}
