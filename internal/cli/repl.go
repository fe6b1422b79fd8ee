package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	AddEntry(ctx context.Context) error
	AddBar(ctx context.Context) error
	List(ctx context.Context) error
	Bars(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	AutoSync(ctx context.Context, args []string) error
	Storage(ctx context.Context) error
	UseDir(ctx context.Context, args []string) error
	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
}

const (
	helpLocal = "Available commands: addentry, addbar, (l)ist, bars, delete <id>, status, storage, usedir <path>|reset, backup, restore, help, exit"
	helpGuest = helpLocal + ", register, login"
	helpUser  = helpLocal + ", sync, autosync on|off, logout"
)

// runREPL reads commands line by line from scanner and dispatches them to a
// until EOF or "exit"/"quit". Handler errors are reported by the handlers
// themselves; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("brewlog %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpUser)
			} else {
				printlnFn(helpGuest)
			}
		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "addentry":
			_ = a.AddEntry(ctx)
		case "addbar":
			_ = a.AddBar(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "bars":
			_ = a.Bars(ctx)
		case "delete":
			_ = a.Delete(ctx, args)
		case "sync":
			_ = a.Sync(ctx)
		case "status":
			_ = a.Status(ctx)
		case "autosync":
			_ = a.AutoSync(ctx, args)
		case "storage":
			_ = a.Storage(ctx)
		case "usedir":
			_ = a.UseDir(ctx, args)
		case "backup":
			_ = a.Backup(ctx)
		case "restore":
			_ = a.Restore(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
