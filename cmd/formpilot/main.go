// Command formpilot fills HTML forms from stored profiles or with values
// generated by an AI model.
//
// Usage:
//
//	formpilot fill --file signup.html --out filled.html
//	formpilot fill --url https://example.com/signup -i "use a Canadian address"
//	formpilot profile create work --first-name Jane --email jane@example.com
//	formpilot profile use work
//	formpilot credentials set <api-key>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		cancel()
		os.Exit(1)
	}
}
