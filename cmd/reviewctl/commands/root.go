package commands

import (
	"context"
	"fmt"
	"os"

	"reviewlens-backend/lib/configutil"
	"reviewlens-backend/lib/enroll"
	"reviewlens-backend/lib/scrapejob"
	"reviewlens-backend/lib/serviceutil"
	"reviewlens-backend/lib/sqliteutil"
	"reviewlens-backend/lib/summarize"
	"reviewlens-backend/lib/userstore"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reviewctl",
	Short: "reviewctl drives the review-study toolkit from the command line.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	// Relay is the base url of the relay server.
	Relay string `json:"relay"`

	Database   sqliteutil.Config `json:"database"`
	Smtp       enroll.SmtpConfig `json:"smtp"`
	Scraper    scrapejob.Config  `json:"scraper"`
	Summarizer summarize.Config  `json:"summarizer"`
}

func readConfig() Config {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Database.File == "" && config.Database.Url == "" {
		config.Database.File = "reviewlens.db"
	}
	return config
}

func openStore(config Config) userstore.Store {
	db, err := sqliteutil.OpenDB(userstore.KVSchema, config.Database)
	if err != nil {
		serviceutil.Fatal("failed to open user database", err)
	}
	return userstore.New(userstore.NewSqliteKV(db))
}
