// Package commands contains the admin tooling commands.
package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	keyName string
	keyPath string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&keyName, "key", "k", "miner1", "Name of the beneficiary key.")
	rootCmd.PersistentFlags().StringVarP(&keyPath, "key-path", "p", "zblock/keys/", "Path to the directory with private keys.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Node administration tooling",
}

// Execute runs the admin command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func privateKeyPath() string {
	name := keyName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(keyPath, name)
}
