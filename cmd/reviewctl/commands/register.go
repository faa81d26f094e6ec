package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"reviewlens-backend/lib/enroll"
	"reviewlens-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Registers a new reviewer: emails a verification code and mints an identity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readConfig()
		store := openStore(config)

		enroller := enroll.New(store, enroll.Options{
			Sender:   enroll.NewSmtpSender(config.Smtp),
			RelayURL: config.Relay,
		})

		err := enroller.Begin(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to start registration", err)
		}

		fmt.Print("verification code: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			serviceutil.Fatal("failed to read verification code", err)
		}

		identity, err := enroller.Verify(ctx, args[0], strings.TrimSpace(line))
		if err != nil {
			serviceutil.Fatal("failed to verify code", err)
		}
		fmt.Printf("registered %s as %s (version %d)\n",
			identity.Email, identity.UserID, identity.ReviewerVersion)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Makes a registered reviewer the active identity.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readConfig()
		store := openStore(config)

		enroller := enroll.New(store, enroll.Options{RelayURL: config.Relay})
		identity, err := enroller.Login(ctx, args[0])
		if err != nil {
			serviceutil.Fatal("failed to log in", err)
		}
		fmt.Printf("logged in as %s\n", identity.UserID)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clears the active identity.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readConfig()
		store := openStore(config)

		enroller := enroll.New(store, enroll.Options{})
		err := enroller.Logout(ctx)
		if err != nil {
			serviceutil.Fatal("failed to log out", err)
		}
		fmt.Println("logged out")
	},
}
