package ebird

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ebird-pages/internal/components/assert"
	"ebird-pages/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_client_fetch_checklist = "client.fetch-checklist"
	report_client_get_checklist   = "client.get-checklist"
	report_client_fetch_recent    = "client.fetch-recent-checklists"
	report_client_get_recent      = "client.get-recent-checklists"
	report_client_recent_count    = "client.recent-checklists"
)

const (
	DefaultBaseUrl   = "https://ebird.org"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second
)

var (
	tracer = otel.Tracer("ebird-pages/scrapers/ebird")
	meter  = otel.Meter("ebird-pages/scrapers/ebird")
)

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
	Telemetry telemetry.API
	// receives every http exchange when set
	Output telemetry.MessageOutput
}

// Client retrieves checklist pages, one request per call with no retries.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	tel       telemetry.API
	extracted metric.Int64Counter
}

func NewClient(opts ClientOptions) (Client, error) {
	assert.NotNil(opts.Telemetry, "ClientOptions.Telemetry")
	tel := telemetry.NewScopedAPI("ebird_scraper", opts.Telemetry)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	baseUrl, err := url.Parse(strings.TrimRight(opts.BaseUrl, "/"))
	if err != nil {
		return Client{}, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	extracted, err := meter.Int64Counter(
		"ebird.checklists_extracted",
		metric.WithDescription("checklists extracted from fetched pages"),
	)
	if err != nil {
		return Client{}, err
	}

	return Client{
		BaseUrl:   baseUrl,
		Http:      httpClient,
		tel:       tel,
		extracted: extracted,
	}, nil
}

func (c Client) fetch(ctx context.Context, path string) (string, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return "", &TransportError{URL: c.BaseUrl.String() + path, Err: err}
	}
	if res.IsError() {
		return "", &TransportError{URL: res.Request.URL, Status: res.StatusCode()}
	}
	return res.String(), nil
}

// ChecklistUrl is the address of the page for a checklist.
func (c Client) ChecklistUrl(identifier string) string {
	return c.BaseUrl.String() + checklistPath(identifier)
}

func checklistPath(identifier string) string {
	return "/checklist/" + url.PathEscape(identifier)
}

func recentPath(region string) string {
	return "/region/" + url.PathEscape(region) + "/recent-checklists"
}

// FetchChecklist returns the raw html of a checklist page.
func (c Client) FetchChecklist(ctx context.Context, identifier string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchChecklist")
	defer span.End()
	span.SetAttributes(attribute.String("checklist", identifier))

	page, err := c.fetch(ctx, checklistPath(identifier))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_checklist, err, identifier)
		return "", err
	}
	return page, nil
}

// GetChecklist fetches and extracts a checklist.
func (c Client) GetChecklist(ctx context.Context, identifier string) (Checklist, error) {
	ctx, span := tracer.Start(ctx, "client:GetChecklist")
	defer span.End()

	page, err := c.FetchChecklist(ctx, identifier)
	if err != nil {
		return Checklist{}, err
	}

	checklist, err := ParseChecklist(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_get_checklist, err, identifier)
		return Checklist{}, fmt.Errorf("checklist %s: %w", identifier, err)
	}

	c.extracted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("protocol", checklist.Protocol.Name),
	))
	c.tel.ReportDebug(
		report_client_get_checklist,
		identifier,
		checklist.Protocol.Name,
		len(checklist.Entries),
	)
	return checklist, nil
}

// FetchRecentChecklists returns the raw html of a region's recent checklists page.
func (c Client) FetchRecentChecklists(ctx context.Context, region string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchRecentChecklists")
	defer span.End()
	span.SetAttributes(attribute.String("region", region))

	page, err := c.fetch(ctx, recentPath(region))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_recent, err, region)
		return "", err
	}
	return page, nil
}

// GetRecentChecklists fetches and extracts the recent checklists of a region.
func (c Client) GetRecentChecklists(ctx context.Context, region string) ([]ChecklistSummary, error) {
	ctx, span := tracer.Start(ctx, "client:GetRecentChecklists")
	defer span.End()

	page, err := c.FetchRecentChecklists(ctx, region)
	if err != nil {
		return nil, err
	}

	summaries, err := ParseRecentChecklists(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_get_recent, err, region)
		return nil, fmt.Errorf("region %s: %w", region, err)
	}

	c.tel.ReportCount(report_client_recent_count, int64(len(summaries)))
	return summaries, nil
}
