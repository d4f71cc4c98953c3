// This program provides administrative tooling for operating a node:
// generating beneficiary keys and seeding a genesis file.
package main

import (
	"github.com/forkline/blockchain/app/tooling/admin/commands"
)

func main() {
	commands.Execute()
}
