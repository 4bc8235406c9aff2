package commands

import (
	"fmt"
	"ihidro-assist/internal/components/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(submitCmd)
}

var submitCmd = &cobra.Command{
	Use:   "submit <reading>",
	Short: "Submits a new meter reading.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		defer s.cleanup()

		err := s.account.Submit(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to submit reading", err)
		}
		fmt.Printf("%s: reading %s accepted\n", s.account.Name(), args[0])
	},
}
