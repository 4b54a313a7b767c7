package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/hackpack/internal/auth"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/twiliosig/main.go <url> [key=value ...]")
		fmt.Println("Computes the X-Twilio-Signature for a webhook request using $TWILIO_AUTH_TOKEN")
		os.Exit(1)
	}

	token := os.Getenv("TWILIO_AUTH_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "TWILIO_AUTH_TOKEN is not set")
		os.Exit(1)
	}

	target := os.Args[1]
	params := url.Values{}
	for _, arg := range os.Args[2:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid parameter %q, expected key=value\n", arg)
			os.Exit(1)
		}
		params.Add(key, value)
	}

	signature := auth.ComputeSignature(token, target, params)

	fmt.Printf("URL: %s\n", target)
	fmt.Printf("%s: %s\n", auth.SignatureHeader, signature)
	fmt.Println("\nReplay the request with:")
	fmt.Printf("  curl -X POST -H '%s: %s'", auth.SignatureHeader, signature)
	for key, values := range params {
		for _, v := range values {
			fmt.Printf(" --data-urlencode '%s=%s'", key, v)
		}
	}
	fmt.Printf(" '%s'\n", target)
}
