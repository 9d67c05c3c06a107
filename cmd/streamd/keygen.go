package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"streamvault/crypto"
)

// runKeygen mints a new secp256k1 account key, or re-derives the account for
// an existing hex-encoded private key, and prints the bech32 address ready to
// paste into a [[Genesis.Alloc]] entry.
func runKeygen(w io.Writer, hexKey string) error {
	var (
		key *crypto.PrivateKey
		err error
	)
	if hexKey != "" {
		raw, decodeErr := hex.DecodeString(hexKey)
		if decodeErr != nil {
			return fmt.Errorf("keygen: invalid private key hex: %w", decodeErr)
		}
		key, err = crypto.PrivateKeyFromBytes(raw)
	} else {
		key, err = crypto.GeneratePrivateKey()
	}
	if err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	fmt.Fprintf(w, "address: %s\n", key.PubKey().Address().String())
	fmt.Fprintf(w, "privateKey: %s\n", hex.EncodeToString(key.Bytes()))
	return nil
}
