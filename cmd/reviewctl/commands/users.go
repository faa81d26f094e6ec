package commands

import (
	"os"
	"time"

	"reviewlens-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(usersCmd)
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Lists the local reviewer roster.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readConfig()
		store := openStore(config)

		identities, err := store.LoadAll(ctx)
		if err != nil {
			serviceutil.Fatal("failed to load roster", err)
		}
		current, hasCurrent, err := store.Current(ctx)
		if err != nil {
			serviceutil.Fatal("failed to load active identity", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"", "email", "user id", "version", "registered"})
		for _, identity := range identities {
			active := ""
			if hasCurrent && identity.UserID == current.UserID {
				active = "*"
			}
			t.AppendRow(table.Row{
				active,
				identity.Email,
				identity.UserID,
				identity.ReviewerVersion,
				identity.RegisteredAt.Format(time.DateOnly),
			})
		}
		t.Render()
	},
}
