package session

import (
	"context"
	"fmt"
	"time"

	"reviewlens-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Collector receives session snapshots. Delivery order is not guaranteed;
// duplicate or out-of-order snapshots are harmless to the backend.
type Collector interface {
	Collect(ctx context.Context, snap Snapshot) error
}

// HTTPCollector posts snapshots to the relay's track-session endpoint.
type HTTPCollector struct {
	http *resty.Client
}

func NewHTTPCollector(baseURL string) HTTPCollector {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(time.Second * 10)
	telemetry.InstrumentResty(client, "reviewlens.lib.session.collector")
	return HTTPCollector{http: client}
}

func (c HTTPCollector) Collect(ctx context.Context, snap Snapshot) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(snap).
		Post("/track-session")
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("collector rejected snapshot: status %d", res.StatusCode())
	}
	return nil
}
