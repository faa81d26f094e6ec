package main

import (
	"context"
	"fmt"
	"os"

	"reviewlens-backend/lib/configutil"
	"reviewlens-backend/lib/scrapejob"
	"reviewlens-backend/lib/serviceutil"
	"reviewlens-backend/lib/sqliteutil"
	"reviewlens-backend/lib/summarize"
	"reviewlens-backend/lib/telemetry"
	"reviewlens-backend/services/archive"
	archivedb "reviewlens-backend/services/archive/db"
	"reviewlens-backend/services/roster"
	rosterdb "reviewlens-backend/services/roster/db"
	"reviewlens-backend/services/tracking"
	trackingdb "reviewlens-backend/services/tracking/db"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Config struct {
	Port int `json:"port"`

	TrackingDatabase sqliteutil.Config `json:"tracking_database"`
	RosterDatabase   sqliteutil.Config `json:"roster_database"`
	ArchiveDatabase  sqliteutil.Config `json:"archive_database"`

	Scraper    scrapejob.Config `json:"scraper"`
	Summarizer summarize.Config `json:"summarizer"`
	Archive    archive.Config   `json:"archive"`
}

// pageSummarizer fulfils summary requests by scraping the page's
// reviews and feeding them to the llm.
type pageSummarizer struct {
	scraper *scrapejob.Client
	llm     *summarize.Client
}

func (p pageSummarizer) SummarizeURL(ctx context.Context, url string) (string, error) {
	reviews, err := p.scraper.FetchReviews(ctx, url)
	if err != nil {
		return "", err
	}
	if len(reviews) == 0 {
		return "", fmt.Errorf("no reviews scraped for %s", url)
	}
	return p.llm.Summarize(ctx, reviews)
}

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	_, err := telemetry.SetupFromEnv(ctx, "relay-server")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to set up telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 3000
	}

	trackingDatabase, err := sqliteutil.OpenDB(trackingdb.Schema, config.TrackingDatabase)
	if err != nil {
		serviceutil.Fatal("failed to open tracking DB", err)
	}
	rosterDatabase, err := sqliteutil.OpenDB(rosterdb.Schema, config.RosterDatabase)
	if err != nil {
		serviceutil.Fatal("failed to open roster DB", err)
	}
	archiveDatabase, err := sqliteutil.OpenDB(archivedb.Schema, config.ArchiveDatabase)
	if err != nil {
		serviceutil.Fatal("failed to open archive DB", err)
	}

	summarizer := pageSummarizer{
		scraper: scrapejob.NewClient(config.Scraper),
		llm:     summarize.NewClient(config.Summarizer),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	tracking.NewService(trackingDatabase).Register(router)
	roster.NewService(rosterDatabase).Register(router)
	archive.NewService(archiveDatabase, summarizer, config.Archive).Register(router)

	go serviceutil.StartHttpServer(config.Port, router)
	<-ctx.Done()
}
