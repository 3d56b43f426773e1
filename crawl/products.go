package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/fairscrape/extract"
	"github.com/pevans/fairscrape/products"
	"go.uber.org/zap"
)

// ErrNoName is returned for a product page without a product name.
var ErrNoName = errors.New("product has no name")

// ScrapeProducts walks the given category listings and stores every product
// that is not stored yet. Products are immutable once written.
func (s *Session) ScrapeProducts(ctx context.Context, categoryURLs []string) (*Report, error) {
	report := &Report{}

	err := s.eachCategory(ctx, categoryURLs, report, func(pc PageCount, links LinkResult) error {
		s.Logger.Info("scraping products",
			zap.String("category", pc.Category),
			zap.Int("links", len(links.Links)),
		)

		for _, link := range links.Links {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.storeProduct(ctx, link, report); err != nil {
				return err
			}
		}
		return nil
	})

	return report, err
}

// storeProduct scrapes and saves one product. Only store failures are
// returned; page failures are recorded on the report.
func (s *Session) storeProduct(ctx context.Context, link string, report *Report) error {
	logger := s.Logger.With(zap.String("url", link))

	exists, err := s.Products.Exists(ctx, link)
	if err != nil {
		return err
	}
	if exists {
		report.Skipped++
		return nil
	}

	product, err := s.ScrapeProduct(ctx, link)
	if err != nil {
		logger.Error("failed to scrape product", zap.Error(err))
		report.fail(link, err)
		return nil
	}

	err = s.Products.CreateProduct(ctx, product)
	switch {
	case errors.Is(err, products.ErrDuplicateURL):
		report.Skipped++
		return nil
	case err != nil:
		return fmt.Errorf("failed to save %s: %w", link, err)
	}

	report.Scraped++
	logger.Info("scraped product",
		zap.String("name", product.Name),
		zap.Int("sizes", len(product.Sizes)),
	)
	return nil
}

// ScrapeProduct reads one product page. The price is cleaned here, so a
// product whose price can't be read fails as a whole.
func (s *Session) ScrapeProduct(ctx context.Context, url string) (*products.Product, error) {
	cfg := s.Profile.Product

	if err := s.Browser.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := s.Browser.WaitPresent(ctx, cfg.ReadySelector, s.Profile.Timeouts.Detail); err != nil {
		return nil, err
	}

	doc, err := s.Browser.Document(ctx)
	if err != nil {
		return nil, err
	}

	name := extract.Lookup(doc, cfg.NameSelector).Value
	if name == "" {
		return nil, ErrNoName
	}

	price, err := extract.CleanPrice(extract.Lookup(doc, cfg.PriceSelector).Value)
	if err != nil {
		return nil, err
	}

	return &products.Product{
		ProductURL:      url,
		NameURL:         extract.NameFromURL(url),
		Name:            name,
		Manufacturer:    extract.Lookup(doc, cfg.ManufacturerSelector).Value,
		Colors:          strings.Join(extract.Texts(doc, cfg.ColorsSelector), ", "),
		DescriptionHTML: extract.LookupHTML(doc, cfg.DescriptionSelector).Value,
		DescriptionText: extract.Lookup(doc, cfg.DescriptionSelector).Value,
		FrontPicture:    picture(doc, cfg.FrontPictureSelector, cfg.PictureAttr),
		BackPicture:     picture(doc, cfg.BackPictureSelector, cfg.PictureAttr),
		PriceCleaned:    price,
		Sizes:           readSizes(doc, cfg.SizeSelector, cfg.UnavailableSizeSelector),
	}, nil
}

func picture(doc *goquery.Document, selector, attr string) string {
	if attr == "" {
		attr = "src"
	}
	src := extract.LookupAttr(doc, selector, attr).Value
	if src == "" || doc.Url == nil {
		return src
	}
	ref, err := doc.Url.Parse(src)
	if err != nil {
		return src
	}
	return ref.String()
}

// readSizes returns the size options in page order. A size matching the
// unavailable selector is stored as not available. Repeated values are kept
// once.
func readSizes(doc *goquery.Document, selector, unavailable string) []products.Size {
	if selector == "" {
		return nil
	}

	var sizes []products.Size
	seen := make(map[string]bool)
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		value := strings.Join(strings.Fields(sel.Text()), " ")
		if value == "" || seen[value] {
			return
		}
		seen[value] = true

		available := true
		if unavailable != "" && sel.Is(unavailable) {
			available = false
		}
		sizes = append(sizes, products.Size{Value: value, Available: available})
	})
	return sizes
}
