package commands

import (
	"fmt"
	"ihidro-assist/internal/components/serviceutil"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit *int
var historySubmissions *bool

func init() {
	historyLimit = historyCmd.Flags().IntP("limit", "n", 20, "The number of entries to show.")
	historySubmissions = historyCmd.Flags().Bool("submissions", false, "Show submissions instead of statuses.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>] [--submissions]",
	Short: "Shows recorded statuses or submissions of an account.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		account, err := cfg.Account(*accountName)
		if err != nil {
			serviceutil.Fatal("failed to select account", err)
		}
		store, closeStore := openStore(cfg)
		defer closeStore()
		if store == nil {
			fmt.Fprintln(os.Stderr, "history is not configured")
			os.Exit(1)
		}

		t := newTable()
		t.SetTitle(account.Name)

		if *historySubmissions {
			entries, err := store.Submissions(cmd.Context(), account.Name, *historyLimit)
			if err != nil {
				serviceutil.Fatal("failed to query submissions", err)
			}
			t.AppendHeader(table.Row{"Data", "Index", "Acceptat"})
			for _, e := range entries {
				t.AppendRow(table.Row{e.Time.Format("02/01/2006 15:04"), e.Value, yesNo(e.Success)})
			}
			t.Render()
			return
		}

		entries, err := store.StatusHistory(cmd.Context(), account.Name, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to query status history", err)
		}
		t.AppendHeader(table.Row{"Data", "Perioada de transmitere", "Deschisa", "Factura"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.Time.Format("02/01/2006 15:04"),
				e.Status.TransmissionWindow,
				yesNo(e.Status.IsWindowOpen),
				e.Status.InvoiceText,
			})
		}
		t.Render()
	},
}
