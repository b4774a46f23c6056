package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kvstore/internal/address"
	"kvstore/internal/config"
	"kvstore/internal/it"
	"kvstore/internal/network"
	"kvstore/internal/vlog"
)

var (
	runPeers         string
	runRounds        int
	runScriptPath    string
	runSeed          int64
	runDropProb      float64
	runDuplicateProb float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run a simulated cluster for a fixed number of rounds",
	Args:  cobra.NoArgs,
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().StringVar(&runPeers, "peers", "", `comma-separated "id:port" topology, e.g. "1:0,2:9002,3:9003" (1:0 is the Introducer)`)
	runCmd.Flags().IntVar(&runRounds, "rounds", 50, "number of rounds to run")
	runCmd.Flags().StringVar(&runScriptPath, "script", "", "path to a churn script file")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "network PRNG seed")
	runCmd.Flags().Float64Var(&runDropProb, "drop-prob", 0, "probability a datagram is dropped in transit")
	runCmd.Flags().Float64Var(&runDuplicateProb, "duplicate-prob", 0, "probability a datagram is delivered twice")
	_ = runCmd.MarkFlagRequired("peers")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	peers, err := config.ParsePeers(runPeers)
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return fmt.Errorf("simnode: --peers must name at least one address")
	}

	var script config.Script
	if runScriptPath != "" {
		text, err := os.ReadFile(runScriptPath)
		if err != nil {
			return fmt.Errorf("simnode: reading script: %w", err)
		}
		script, err = config.ParseScript(string(text))
		if err != nil {
			return fmt.Errorf("simnode: parsing script: %w", err)
		}
	}

	cfg := config.Config{
		Peers:         peers,
		Rounds:        runRounds,
		Script:        script,
		DropProb:      runDropProb,
		DuplicateProb: runDuplicateProb,
		Seed:          runSeed,
	}

	zl, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("simnode: building logger: %w", err)
	}
	defer zl.Sync()
	logger := vlog.New(zl).WithRunID(uuid.New().String())

	cluster := it.NewCluster(cfg.Seed, network.Conditions{DropProb: cfg.DropProb, DuplicateProb: cfg.DuplicateProb}, logger).WithScript(cfg.Script)
	for _, p := range cfg.Peers {
		cluster.StartNode(p.Addr())
	}
	cluster.Run(cfg.Rounds)

	joined := 0
	for _, addr := range cluster.Addrs() {
		if n, ok := cluster.Node(addr); ok {
			fmt.Printf("%s\tin_group=%v\tkeys=%d\n", addr, n.InGroup(), n.Store().Len())
			if n.InGroup() {
				joined++
			}
		} else {
			fmt.Printf("%s\tdead\n", addr)
		}
	}
	fmt.Printf("%s: %d/%d nodes in group after %d rounds\n", cluster, joined, len(cfg.Peers), cfg.Rounds)

	addrs := make([]address.Address, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		addrs = append(addrs, p.Addr())
	}
	return cluster.Shutdown(addrs...)
}
