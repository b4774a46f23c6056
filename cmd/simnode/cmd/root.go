package cmd

import (
	"github.com/spf13/cobra"
)

const usage = `simnode drives a simulated kvstore cluster through a fixed number
of gossip/quorum rounds over an emulated network.

EXAMPLES:
  Run a three-node cluster (the Introducer 1:0 plus two joiners) for 100 rounds:
    simnode run --peers 1:0,2:9002,3:9003 --rounds 100

  Validate a churn script without running it:
    simnode script testdata/churn.txt`

var rootCmd = &cobra.Command{
	Use:   "simnode",
	Short: "drive a simulated kvstore cluster",
	Long:  usage,
}

func init() {
	rootCmd.AddCommand(runCmd, scriptCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
