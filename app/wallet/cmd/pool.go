package cmd

import (
	"log"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

// poolCmd represents the pool command.
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Print the transactions waiting to be mined",
	Run: func(cmd *cobra.Command, args []string) {
		var txs []database.Tx
		if err := call(http.MethodGet, "/v1/tx/list", nil, &txs); err != nil {
			log.Fatal(err)
		}

		if err := printJSON(txs); err != nil {
			log.Fatal(err)
		}
	},
}

// peersCmd represents the peers command.
var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Print the nodes known to the node",
	Run: func(cmd *cobra.Command, args []string) {
		var peers []peer.Peer
		if err := call(http.MethodGet, "/v1/peers", nil, &peers); err != nil {
			log.Fatal(err)
		}

		if err := printJSON(peers); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(peersCmd)
}
