// Command keygen prints a new admin API key and the ADMIN_API_KEY_HASH value
// that enables it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/parishdesk/reporting/internal/auth"
)

type output struct {
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	Hash      string `json:"admin_api_key_hash"`
}

func main() {
	var (
		env    = flag.String("env", auth.EnvLive, "Key environment: live or test")
		format = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	generated, err := auth.GenerateKey(*env, auth.DefaultParams)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generate admin key:", err)
		os.Exit(1)
	}

	out := output{Key: generated.Plaintext, KeyPrefix: generated.Prefix, Hash: generated.Hash}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, "encode output:", err)
			os.Exit(1)
		}
	case "plain":
		fmt.Println("Admin key (shown once):", out.Key)
		fmt.Println("Key prefix:", out.KeyPrefix)
		// Single quotes keep the $ separators intact in .env files and shells.
		fmt.Printf("ADMIN_API_KEY_HASH='%s'\n", out.Hash)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(1)
	}
}
