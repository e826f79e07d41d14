package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

// chainCmd represents the chain command.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the node's chain",
	Run: func(cmd *cobra.Command, args []string) {
		var blocks []database.Block
		if err := call(http.MethodGet, "/v1/blockchain", nil, &blocks); err != nil {
			log.Fatal(err)
		}

		// Names are a convenience, the chain prints without them.
		ns, err := nameservice.New(walletPath)
		if err != nil {
			ns = &nameservice.NameService{}
		}

		for _, b := range blocks {
			fmt.Printf("Block %d %s prev[%s] nonce[%d] txs[%d]\n", b.ID, b.Hash, b.PrevHash, b.Nonce, len(b.Transactions))
			for _, tx := range b.Transactions {
				fmt.Printf("\t%s: %s -> %s amount[%d] fee[%d]\n", tx.ID, short(ns.Lookup(tx.Sender)), short(ns.Lookup(tx.Receiver)), tx.Amount, tx.Fee)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

// short keeps raw public keys from flooding the terminal.
func short(s string) string {
	const width = 16
	if len(s) <= width {
		return s
	}
	return s[:width] + "..."
}
