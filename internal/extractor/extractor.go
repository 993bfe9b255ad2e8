// Package extractor turns a rendered partner page into raw domain entries.
//
// The extractor only reads the page; it does not decide what a label means.
// Status labels are returned verbatim and classified later.
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	cardSelector      = ".domain-card"
	slugSelector      = ".domain-slug"
	endingSelector    = ".domain-ending"
	nameSelector      = ".domain-name"
	buttonSelector    = "button.add-to-cart"
	statusSelector    = ".status"
	priceSelector     = ".price"
	domainAttr        = "data-domain"
	soldClass         = "sold"
	soldFallbackLabel = "sold"
)

// priceRe matches the first dollar amount, e.g. "$1,250" or "$ 19.99".
var priceRe = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)`) //nolint: gochecknoglobals

// RawEntry is a domain card as it appears on the page.
type RawEntry struct {
	// Name is the full domain name.
	Name string
	// StatusText is the unprocessed status label, usually the cart button text.
	StatusText string
	// PriceText is the unprocessed price element text, if any.
	PriceText string
	// Price is the parsed price, nil when absent or unparsable.
	Price *float64
}

// Extraction is the outcome of parsing one page.
type Extraction struct {
	// Entries are the parsed cards in page order.
	Entries []RawEntry
	// Found is the number of card elements located on the page.
	Found int
	// Skipped is the number of cards dropped because they could not be parsed.
	Skipped int
}

// Extract locates domain cards in the page content. Malformed cards are skipped
// and counted, never reported as errors. A page without cards yields an empty
// Extraction.
func Extract(pageContent string) Extraction {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageContent))
	if err != nil {
		// reading from a strings.Reader does not fail; treat it as an empty page
		return Extraction{}
	}

	return ExtractDocument(doc)
}

// ExtractDocument is Extract for an already parsed document.
func ExtractDocument(doc *goquery.Document) Extraction {
	var out Extraction
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		out.Found++

		entry, ok := parseCard(card)
		if !ok {
			out.Skipped++

			return
		}
		out.Entries = append(out.Entries, entry)
	})

	return out
}

func parseCard(card *goquery.Selection) (RawEntry, bool) {
	name := cardName(card)
	if name == "" {
		return RawEntry{}, false
	}

	entry := RawEntry{
		Name:       name,
		StatusText: cardStatus(card),
	}

	if price := card.Find(priceSelector).First(); price.Length() > 0 {
		entry.PriceText = cleanText(price.Text())
		entry.Price = ParsePrice(entry.PriceText)
	}

	return entry, true
}

func cardName(card *goquery.Selection) string {
	slug := cleanText(card.Find(slugSelector).First().Text())
	ending := cleanText(card.Find(endingSelector).First().Text())
	if slug != "" && ending != "" {
		return slug + ending
	}

	if name := cleanText(card.Find(nameSelector).First().Text()); name != "" {
		return name
	}

	if attr, ok := card.Attr(domainAttr); ok {
		return strings.TrimSpace(attr)
	}

	return ""
}

func cardStatus(card *goquery.Selection) string {
	button := card.Find(buttonSelector).First()
	if label := cleanText(button.Text()); label != "" {
		return label
	}

	// a disabled button styled as sold with no label still means sold
	if button.Length() > 0 && button.HasClass(soldClass) {
		if _, disabled := button.Attr("disabled"); disabled {
			return soldFallbackLabel
		}
	}

	return cleanText(card.Find(statusSelector).First().Text())
}

// ParsePrice extracts the first dollar amount from text. It returns nil when no
// amount is present.
func ParsePrice(text string) *float64 {
	m := priceRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v < 0 {
		return nil
	}

	return &v
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
