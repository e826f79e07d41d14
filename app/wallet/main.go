// This program is a small client wallet for the ledger network.
package main

import "github.com/ardanlabs/ledger/app/wallet/cmd"

func main() {
	cmd.Execute()
}
