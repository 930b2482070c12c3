package main

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
)

func runKeygen(cmd *cobra.Command, args []string) error {
	return writeKey(cmd.OutOrStdout(), keygenBytes)
}

// writeKey prints n random bytes, base64 (raw URL) encoded, suitable for
// STUDYHUB_SESSION_KEY.
func writeKey(out io.Writer, n int) error {
	if n < 32 {
		return fmt.Errorf("key must be at least 32 bytes, got %d", n)
	}
	key := securecookie.GenerateRandomKey(n)
	if key == nil {
		return fmt.Errorf("could not read %d random bytes", n)
	}
	fmt.Fprintln(out, base64.RawURLEncoding.EncodeToString(key))
	return nil
}
