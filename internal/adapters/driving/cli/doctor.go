package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the embedding and LLM providers",
	Long: `Pings the configured embedding and LLM providers and reports whether
each is reachable with the current configuration.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	if doctorChecks == nil {
		return errNotConfigured
	}

	failed := 0
	for _, check := range doctorChecks(commandContext(cmd)) {
		if check.Err != nil {
			failed++
			cmd.Printf("  %-40s FAILED: %v\n", check.Name, check.Err)
			continue
		}
		cmd.Printf("  %-40s OK\n", check.Name)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
