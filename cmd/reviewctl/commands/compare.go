package commands

import (
	"context"
	"fmt"
	"os"

	"reviewlens-backend/lib/amenities"
	"reviewlens-backend/lib/serviceutil"
	"reviewlens-backend/lib/session"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <url> <url> [url...]",
	Short: "Compares the amenities of 2 or 3 property pages.",
	Long: "Compares the amenities of property pages. Passing more than 3 urls " +
		"keeps the most recent 3, matching the extension's selection behavior.",
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readConfig()

		selection := amenities.NewSelection(3)
		for _, url := range args {
			selection.Add(amenities.Entity{Name: url, URL: url})
		}
		entities := selection.Items()

		provider, err := amenities.NewHTTPProvider()
		if err != nil {
			serviceutil.Fatal("failed to initialize page provider", err)
		}
		result, err := amenities.Compare(ctx, provider, entities)
		if err != nil {
			serviceutil.Fatal("failed to compare amenities", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		header := table.Row{"amenity"}
		for _, er := range result.Entities {
			header = append(header, er.Entity.Name)
		}
		t.AppendHeader(header)
		for _, label := range result.Union {
			row := table.Row{label}
			for _, er := range result.Entities {
				mark := ""
				for _, have := range er.Amenities {
					if have == label {
						mark = "x"
						break
					}
				}
				row = append(row, mark)
			}
			t.AppendRow(row)
		}
		t.Render()
		fmt.Printf("shared %d of %d amenities (agreement %.0f%%)\n",
			len(result.Common), len(result.Union), result.AgreementRate*100)

		recordComparison(ctx, config, result)
	},
}

// recordComparison mirrors the comparison into the relay's telemetry,
// best-effort, when a reviewer is logged in.
func recordComparison(ctx context.Context, config Config, result amenities.Result) {
	if config.Relay == "" {
		return
	}
	store := openStore(config)
	identity, ok, err := store.Current(ctx)
	if err != nil || !ok {
		return
	}

	names := make([]string, 0, len(result.Entities))
	uniques := make([]int, 0, len(result.Entities))
	for _, er := range result.Entities {
		names = append(names, er.Entity.Name)
		uniques = append(uniques, len(er.Unique))
	}

	tracker := session.NewTracker(session.NewHTTPCollector(config.Relay), session.Config{})
	tracker.Login(ctx, identity)
	tracker.RecordComparison(ctx, session.ComparisonStats{
		Entities:      names,
		CommonCount:   len(result.Common),
		UniqueCounts:  uniques,
		AgreementRate: result.AgreementRate,
	})
	tracker.Logout(ctx)
}
