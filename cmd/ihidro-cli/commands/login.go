package commands

import (
	"errors"
	"fmt"
	"ihidro-assist/internal/components/serviceutil"
	"ihidro-assist/internal/scrapers/ihidro"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Checks that the account credentials are accepted by the portal.",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		defer s.cleanup()

		err := s.account.Login(cmd.Context())
		if errors.Is(err, ihidro.ErrAuthFailed) {
			fmt.Fprintf(os.Stderr, "%s: the portal rejected the username or password\n", s.account.Name())
			s.cleanup()
			os.Exit(1)
		}
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		fmt.Printf("%s: logged in\n", s.account.Name())
	},
}
