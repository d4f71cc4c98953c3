package commands

import (
	"fmt"
	"log"
	"time"

	"github.com/forkline/blockchain/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
)

var (
	genesisPath   string
	chainID       uint16
	transPerBlock uint16
	difficulty    uint16
	miningReward  uint64
)

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Write a new genesis file",
	Run:   genesisRun,
}

func init() {
	genesisCmd.Flags().StringVarP(&genesisPath, "out", "o", "zblock/genesis.json", "Path to write the genesis file to.")
	genesisCmd.Flags().Uint16Var(&chainID, "chain-id", 1, "Unique id for this chain.")
	genesisCmd.Flags().Uint16Var(&transPerBlock, "trans-per-block", 10, "Maximum transactions per block.")
	genesisCmd.Flags().Uint16Var(&difficulty, "difficulty", 6, "Leading zeros required of a block hash.")
	genesisCmd.Flags().Uint64Var(&miningReward, "mining-reward", 700, "Reward for mining a block.")
	rootCmd.AddCommand(genesisCmd)
}

func genesisRun(cmd *cobra.Command, args []string) {
	gen := genesis.Genesis{
		Date:          time.Now().UTC(),
		ChainID:       chainID,
		TransPerBlock: transPerBlock,
		Difficulty:    difficulty,
		MiningReward:  miningReward,
	}

	if err := gen.Save(genesisPath); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("genesis written to %s\n", genesisPath)
}
