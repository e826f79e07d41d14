package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var keyBits int

// generateCmd represents the generate command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair for the wallet",
	Run: func(cmd *cobra.Command, args []string) {
		path := getPrivateKeyPath()

		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("wallet %s already exists", path)
		}

		if err := os.MkdirAll(walletPath, 0700); err != nil {
			log.Fatal(err)
		}

		privateKey, err := signature.GenerateKey(keyBits)
		if err != nil {
			log.Fatal(err)
		}

		if err := signature.SaveKey(path, privateKey); err != nil {
			log.Fatal(err)
		}

		pub, err := signature.EncodePublicKey(&privateKey.PublicKey)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println("Wallet:", path)
		fmt.Println("Public Key:", pub)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVarP(&keyBits, "bits", "b", signature.DefaultKeyBits, "Size of the rsa key.")
}
