// Command simnode drives a simulated kvstore cluster: a fixed set of
// addresses gossiping membership and serving quorum reads/writes over
// an emulated, lossy network, optionally churned by a kill/revive/
// leave script.
package main

import (
	"fmt"
	"os"

	"kvstore/cmd/simnode/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
