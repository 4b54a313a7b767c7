// Command configure provisions a Twilio account for a deployed hackpack.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/hackpack/internal/pkg/safehttp"
	"github.com/tjfontaine/hackpack/internal/provider/twilio"
	"github.com/tjfontaine/hackpack/internal/provision"
)

func newProvider(accountSID, authToken string) provision.Provider {
	return twilio.New(accountSID, authToken, twilio.WithHTTPClient(safehttp.NewClient(0)))
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(newProvider).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
