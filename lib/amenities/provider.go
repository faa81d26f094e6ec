package amenities

import (
	"bytes"
	"context"
	"net/http/cookiejar"
	"time"

	"reviewlens-backend/lib/telemetry"
	"reviewlens-backend/lib/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("reviewlens.lib.amenities")

// PageContent is the normalized view of one entity page: the full page
// text plus any elements tagged as amenity items.
type PageContent struct {
	Text  string
	Items []string
}

// PageProvider fetches and normalizes an entity's page. Implementations
// other than HTTP back the tests.
type PageProvider interface {
	FetchPage(ctx context.Context, url string) (PageContent, error)
}

// amenity item selectors observed on the review site
const itemSelector = `[data-test-target="amenity-item"], .amenity-item, .property-amenity`

type HTTPProvider struct {
	http *resty.Client
}

func NewHTTPProvider() (HTTPProvider, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return HTTPProvider{}, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "reviewlens.lib.amenities.http")

	return HTTPProvider{http: client}, nil
}

func (p HTTPProvider) FetchPage(ctx context.Context, url string) (PageContent, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := p.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return PageContent{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return PageContent{}, err
	}

	var items []string
	doc.Find(itemSelector).Each(func(_ int, sel *goquery.Selection) {
		text := textutil.CollapseWhitespace(sel.Text())
		if text != "" {
			items = append(items, text)
		}
	})

	return PageContent{
		Text:  doc.Text(),
		Items: items,
	}, nil
}
