// Prints a random hex secret suitable for SECRET_KEY or ADMIN_SECRET_KEY.
// The service refuses to start without both, and there are no defaults:
//
//	SECRET_KEY=$(gensecret) ADMIN_SECRET_KEY=$(gensecret) identity ...
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// 32 bytes, same entropy as a refresh token
const secretBytesLen = 32

func main() {
	b := make([]byte, secretBytesLen)

	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
