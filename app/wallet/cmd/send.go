package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/ledger/business/sys/validate"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// sendInput is what the user asks to send.
type sendInput struct {
	ID     string `json:"id" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount int64  `json:"amount" validate:"gte=0"`
	Fee    int64  `json:"fee" validate:"gte=0"`
}

var input sendInput

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction and submit it to the node",
	Run: func(cmd *cobra.Command, args []string) {
		if input.ID == "" {
			input.ID = uuid.NewString()
		}

		if err := validate.Check(input); err != nil {
			log.Fatal(err)
		}

		privateKey, err := signature.LoadKey(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sender, err := signature.EncodePublicKey(&privateKey.PublicKey)
		if err != nil {
			log.Fatal(err)
		}

		// A receiver can be named after a wallet in the wallet folder.
		receiver := input.To
		ns, err := nameservice.New(walletPath)
		if err != nil {
			log.Fatal(err)
		}
		if pub, exists := ns.Resolve(input.To); exists {
			receiver = pub
		}

		tx, err := database.NewTx(input.ID, sender, receiver, input.Amount, input.Fee).Sign(privateKey)
		if err != nil {
			log.Fatal(err)
		}

		if err := tx.Validate(); err != nil {
			log.Fatal(err)
		}

		var result struct {
			Success bool `json:"success"`
			Added   int  `json:"added"`
		}
		if err := call(http.MethodPost, "/v1/tx/submit", []database.Tx{tx}, &result); err != nil {
			log.Fatal(err)
		}

		fmt.Printf("Transaction %s submitted: added %d\n", tx.ID, result.Added)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&input.ID, "id", "i", "", "Transaction id, generated when empty.")
	sendCmd.Flags().StringVarP(&input.To, "to", "t", "", "Wallet name or public key of the receiver.")
	sendCmd.Flags().Int64VarP(&input.Amount, "amount", "a", 0, "Amount to send.")
	sendCmd.Flags().Int64VarP(&input.Fee, "fee", "f", 0, "Fee to pay the miner.")
	sendCmd.MarkFlagRequired("to")
}
