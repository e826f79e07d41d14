// Package cmd contains the wallet commands.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

var (
	walletName string
	walletPath string
	nodeURL    string
)

var client = http.Client{Timeout: 10 * time.Second}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Simple wallet for the ledger network",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "private", "Name of the wallet key file.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with wallet keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

func getPrivateKeyPath() string {
	name := walletName
	if !strings.HasSuffix(name, nameservice.KeyExtension) {
		name += nameservice.KeyExtension
	}
	return filepath.Join(walletPath, name)
}

// call performs a request against the node and decodes the reply. Error
// replies are turned into a go error carrying the node's message.
func call(method string, path string, dataSend any, dataRecv any) error {
	var body bytes.Buffer
	if dataSend != nil {
		if err := json.NewEncoder(&body).Encode(dataSend); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, nodeURL+path, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s %v", method, path, er.Error, er.Fields)
	}

	if dataRecv != nil {
		return json.NewDecoder(resp.Body).Decode(dataRecv)
	}

	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
