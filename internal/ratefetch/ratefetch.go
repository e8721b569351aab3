// Package ratefetch reads the official USD exchange rate from the central
// bank home page.
package ratefetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "github.com/farmaintel/price-service/internal/http"
	"github.com/farmaintel/price-service/internal/http/ratelimit"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

// DefaultURL is the central bank home page
const DefaultURL = "https://www.bcv.org.ve/"

// ErrRateNotFound is returned when the page holds no usable rate
var ErrRateNotFound = errors.New("exchange rate not found on page")

// Config configures a Fetcher
type Config struct {
	URL     string
	Timeout time.Duration
	Limits  ratelimit.Config
	// InsecureSkipVerify disables certificate checks; the bank's chain is
	// often incomplete
	InsecureSkipVerify bool
	// UserAgent overrides the browser user agent sent to the bank
	UserAgent string
}

// DefaultConfig returns the production configuration
func DefaultConfig() Config {
	return Config{
		URL:     DefaultURL,
		Timeout: 15 * time.Second,
		Limits:  ratelimit.DefaultConfig(),
	}
}

// Fetcher downloads and extracts the exchange rate. Concurrent calls share
// one request.
type Fetcher struct {
	client *httpclient.Client
	url    string
	group  singleflight.Group
}

// New creates a Fetcher
func New(cfg Config) *Fetcher {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	client := httpclient.NewClient(cfg.Limits, cfg.Timeout)
	if cfg.InsecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		client.SetTransport(transport)
	}
	client.SetUserAgent(cfg.UserAgent)
	return &Fetcher{client: client, url: cfg.URL}
}

// FetchRate returns the current rate in local currency per USD. The shared
// request ignores the cancellation of whichever caller started it; the
// client timeout bounds it instead.
func (f *Fetcher) FetchRate(ctx context.Context) (float64, error) {
	shareCtx := context.WithoutCancel(ctx)
	v, err, shared := f.group.Do(f.url, func() (any, error) {
		page, err := f.client.GetBytes(shareCtx, f.url)
		if err != nil {
			return 0.0, fmt.Errorf("fetch exchange rate: %w", err)
		}
		return ExtractRate(page)
	})
	if err != nil {
		log.Warn().Err(err).Str("url", f.url).Msg("Exchange rate fetch failed")
		return 0, err
	}

	rate := v.(float64)
	log.Info().Float64("rate", rate).Bool("shared", shared).Msg("Exchange rate fetched")
	return rate, nil
}

// ExtractRate finds the rate in the bank's home page. The value normally
// sits in a <strong> inside the #dolar block; as a last resort any
// .centrado <strong> holding a value above 1 is taken.
func ExtractRate(page []byte) (float64, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return 0, fmt.Errorf("parse page: %w", err)
	}

	if dolar := findFirst(doc, func(n *html.Node) bool { return attr(n, "id") == "dolar" }); dolar != nil {
		strongs := findAll(dolar, isElement("strong"))
		if len(strongs) > 0 {
			if rate := fields.ParseRate(textOf(strongs[0])); rate > 0 {
				return rate, nil
			}
		}
		if rate := fields.ParseRate(textOf(dolar)); rate > 0 {
			return rate, nil
		}
		for _, s := range strongs {
			if rate := fields.ParseRate(textOf(s)); rate > 0 {
				return rate, nil
			}
		}
	}

	for _, block := range findAll(doc, hasClass("centrado")) {
		for _, s := range findAll(block, isElement("strong")) {
			if rate := fields.ParseRate(textOf(s)); rate > 1 {
				return rate, nil
			}
		}
	}

	return 0, ErrRateNotFound
}

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func attr(n *html.Node, key string) string {
	if n.Type != html.ElementNode {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findFirst(c, match); n != nil {
			return n
		}
	}
	return nil
}

// findAll returns matching descendants of root in document order
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			out = append(out, c)
		}
		out = append(out, findAll(c, match)...)
	}
	return out
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
