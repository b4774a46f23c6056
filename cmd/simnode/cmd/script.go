package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kvstore/internal/config"
)

var scriptCmd = &cobra.Command{
	Use:   "script [file]",
	Short: "validate a churn script and print its parsed events",
	Args:  cobra.ExactArgs(1),
	RunE:  validateScript,
}

func validateScript(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("simnode: reading script: %w", err)
	}
	s, err := config.ParseScript(string(text))
	if err != nil {
		return err
	}
	for _, ev := range s.Events {
		fmt.Printf("round=%d\tkind=%s\ttarget=%s\tid=%s\n", ev.Round, ev.Kind, ev.Target, ev.ID)
	}
	fmt.Printf("%d events parsed\n", len(s.Events))
	return nil
}
