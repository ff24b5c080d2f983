// Package cli provides the interactive passvault command-line client.
//
// It connects to the vault daemon over the Dispatch channel and runs a REPL
// that drives the vault operations: setup, unlock and lock, master password
// rotation, credential lookup, the pending-save flow, listing, deletion and
// password generation. Master passwords are read from the terminal without
// echo.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits or
// input ends.
package cli
