package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/logger"
)

// Defaults for the marketplace collector.
const (
	defaultRequestTimeout = 30 * time.Second
	defaultRateLimit      = 2 * time.Second
	defaultParallelism    = 2
	defaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Selectors are the CSS selectors for the marketplace's search and
// product pages. They are configuration, not code: the site's markup
// changes more often than its structure.
type Selectors struct {
	SearchCard   string `yaml:"search_card" mapstructure:"search_card"`
	CardTitle    string `yaml:"card_title" mapstructure:"card_title"`
	CardLink     string `yaml:"card_link" mapstructure:"card_link"`
	CardPrice    string `yaml:"card_price" mapstructure:"card_price"`
	CardCategory string `yaml:"card_category" mapstructure:"card_category"`
	OfferRow     string `yaml:"offer_row" mapstructure:"offer_row"`
	OfferSeller  string `yaml:"offer_seller" mapstructure:"offer_seller"`
	OfferPrice   string `yaml:"offer_price" mapstructure:"offer_price"`
	OfferLink    string `yaml:"offer_link" mapstructure:"offer_link"`
	OfferDetail  string `yaml:"offer_detail" mapstructure:"offer_detail"`
}

// DefaultSelectors returns selectors for the current torob.com markup.
func DefaultSelectors() Selectors {
	return Selectors{
		SearchCard:   "div.product-card",
		CardTitle:    "h2.product-name",
		CardLink:     "a",
		CardPrice:    "div.product-price",
		CardCategory: "div.product-category",
		OfferRow:     "div.shop-card",
		OfferSeller:  "div.shop-name",
		OfferPrice:   "div.shop-price",
		OfferLink:    "a.buy-link",
		OfferDetail:  "div.shop-details",
	}
}

// Config configures the marketplace client.
type Config struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	RateLimit      time.Duration `yaml:"rate_limit" mapstructure:"rate_limit"`
	Parallelism    int           `yaml:"parallelism" mapstructure:"parallelism"`
	Selectors      Selectors     `yaml:"selectors" mapstructure:"selectors"`
}

// Torob fetches search candidates and seller offers from a Torob-style
// marketplace. It implements Client and is safe for concurrent use: each
// call builds its own collector, while the shared limit rule keeps the
// overall request rate polite.
type Torob struct {
	cfg Config
	log logger.Interface
}

// NewTorob creates a marketplace client.
func NewTorob(cfg Config, log logger.Interface) (*Torob, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("marketplace base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid marketplace base URL: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.Selectors == (Selectors{}) {
		cfg.Selectors = DefaultSelectors()
	}

	if log == nil {
		log = logger.NewNoOp()
	}

	return &Torob{cfg: cfg, log: log}, nil
}

// newCollector builds a collector with the shared politeness settings.
func (t *Torob) newCollector() (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.UserAgent(t.cfg.UserAgent),
	)
	c.SetRequestTimeout(t.cfg.RequestTimeout)

	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       t.cfg.RateLimit,
		RandomDelay: t.cfg.RateLimit / 2,
		Parallelism: t.cfg.Parallelism,
	})
	if err != nil {
		return nil, fmt.Errorf("set limit rule: %w", err)
	}
	return c, nil
}

// Search implements Searcher.
func (t *Torob) Search(ctx context.Context, query string) ([]domain.SearchCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err := t.newCollector()
	if err != nil {
		return nil, Permanent("search", err)
	}

	sel := t.cfg.Selectors
	var (
		candidates []domain.SearchCandidate
		fetchErr   error
	)

	c.OnHTML(sel.SearchCard, func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.ChildText(sel.CardTitle))
		ref := e.Request.AbsoluteURL(e.ChildAttr(sel.CardLink, "href"))
		if title == "" || ref == "" {
			// A card without a title or link cannot be drilled
			// into; flag it rather than passing a partial record
			// downstream.
			t.log.Debug("skipping malformed search card", "url", e.Request.URL.String())
			return
		}
		candidates = append(candidates, domain.SearchCandidate{
			Title:        title,
			ProductRef:   ref,
			PriceHint:    strings.TrimSpace(e.ChildText(sel.CardPrice)),
			CategoryHint: strings.TrimSpace(e.ChildText(sel.CardCategory)),
		})
	})

	c.OnError(func(r *colly.Response, visitErr error) {
		fetchErr = classify("search", r, visitErr)
	})

	searchURL := strings.TrimRight(t.cfg.BaseURL, "/") + "/search/?query=" + url.QueryEscape(query)
	if visitErr := c.Visit(searchURL); visitErr != nil && fetchErr == nil {
		fetchErr = Transient("search", visitErr)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	t.log.Debug("search fetched",
		"query", query,
		"candidates", len(candidates),
	)
	return candidates, nil
}

// DrillDown implements DrillDowner.
func (t *Torob) DrillDown(ctx context.Context, productRef string) ([]domain.RawOffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	productURL, err := t.resolveRef(productRef)
	if err != nil {
		return nil, Permanent("drill_down", err)
	}

	c, err := t.newCollector()
	if err != nil {
		return nil, Permanent("drill_down", err)
	}

	sel := t.cfg.Selectors
	var (
		offers   []domain.RawOffer
		fetchErr error
	)

	c.OnHTML(sel.OfferRow, func(e *colly.HTMLElement) {
		seller := strings.TrimSpace(e.ChildText(sel.OfferSeller))
		price := strings.TrimSpace(e.ChildText(sel.OfferPrice))
		if seller == "" && price == "" {
			return
		}

		offer := domain.RawOffer{
			SellerName: seller,
			PriceText:  price,
			Link:       e.Request.AbsoluteURL(e.ChildAttr(sel.OfferLink, "href")),
		}

		// Condition and warranty live in free-form detail rows.
		e.DOM.Find(sel.OfferDetail).Each(func(_ int, detail *goquery.Selection) {
			text := strings.TrimSpace(detail.Text())
			switch {
			case text == "":
			case strings.Contains(text, "گارانتی") || strings.Contains(strings.ToLower(text), "warranty"):
				offer.WarrantyText = text
			default:
				if offer.ConditionText == "" {
					offer.ConditionText = text
				}
			}
		})

		offers = append(offers, offer)
	})

	c.OnError(func(r *colly.Response, visitErr error) {
		fetchErr = classify("drill_down", r, visitErr)
	})

	if visitErr := c.Visit(productURL); visitErr != nil && fetchErr == nil {
		fetchErr = Transient("drill_down", visitErr)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}

	t.log.Debug("product fetched",
		"ref", productRef,
		"offers", len(offers),
	)
	return offers, nil
}

// resolveRef turns a product reference into an absolute URL.
func (t *Torob) resolveRef(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty product reference")
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	return strings.TrimRight(t.cfg.BaseURL, "/") + "/" + strings.TrimLeft(ref, "/"), nil
}

// classify maps a failed response to the fetch error taxonomy.
func classify(op string, r *colly.Response, err error) error {
	status := 0
	if r != nil {
		status = r.StatusCode
	}

	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return Permanent(op, fmt.Errorf("http status %d: %w", status, err))
	case status == http.StatusTooManyRequests:
		return Transient(op, fmt.Errorf("rate limited: %w", err))
	case status >= http.StatusInternalServerError:
		return Transient(op, fmt.Errorf("http status %d: %w", status, err))
	case status >= http.StatusBadRequest:
		return Permanent(op, fmt.Errorf("http status %d: %w", status, err))
	default:
		return Transient(op, err)
	}
}
