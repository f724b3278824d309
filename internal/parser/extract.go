package parser

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Scan bounds. Every extractor looks at a fixed number of characters at most,
// whatever the size of the page it is given.
const (
	MaxPriceTextLength    = 1000
	MaxPriceScanChars     = 100
	MaxPriceFilteredChars = 50
	MaxPriceTokenLength   = 20

	MaxDescriptionNodes      = 50
	MaxDescriptionNodeLength = 10000
	MaxDescriptionLength     = 5000

	MaxDiscountTextLength = 100
	MaxDiscountScanChars  = 20
	MaxDiscountDigits     = 10

	MaxCounterTextLength = 200
	MaxImageAttrLength   = 100000
)

const unavailablePhrase = "currently unavailable"

// descriptionSelectors are tried in order; the first one with matches wins.
var descriptionSelectors = []string{
	"#feature-bullets .a-unordered-list .a-list-item",
	".a-unordered-list .a-list-item",
	".a-expander-content p",
	"#productDescription p",
}

// ExtractPrice returns the first decimal-looking token found in the candidates, in order.
// It returns an empty string when none of them yields a number.
func ExtractPrice(candidates ...*goquery.Selection) string {
	for _, candidate := range candidates {
		if candidate == nil || candidate.Length() == 0 {
			continue
		}
		if price := ScanPrice(candidate.First().Text()); price != "" {
			return price
		}
	}

	return ""
}

// ScanPrice finds the first number (digits with at most one '.') in text.
// The scan is bounded: at most MaxPriceScanChars characters are inspected and
// the result never exceeds MaxPriceTokenLength characters.
func ScanPrice(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if len(text) > MaxPriceTextLength {
		text = text[:MaxPriceTextLength]
	}

	filtered := make([]byte, 0, MaxPriceFilteredChars)
	for i := 0; i < len(text) && i < MaxPriceScanChars; i++ {
		c := text[i]
		if isDigit(c) || c == '.' {
			filtered = append(filtered, c)
			if len(filtered) >= MaxPriceFilteredChars {
				break
			}
		}
	}

	token := make([]byte, 0, MaxPriceTokenLength)
	hasDot := false
	for _, c := range filtered {
		switch {
		case isDigit(c):
			token = append(token, c)
		case c == '.' && len(token) > 0 && !hasDot:
			token = append(token, c)
			hasDot = true
		case len(token) > 0 && hasDot:
			// a second separator ends a complete decimal
			return finishPrice(token)
		default:
			token = token[:0]
			hasDot = false
		}
		if len(token) >= MaxPriceTokenLength {
			break
		}
	}

	return finishPrice(token)
}

func finishPrice(token []byte) string {
	return strings.TrimSuffix(string(token), ".")
}

// ExtractCurrency returns the first character of the trimmed text, or an empty string.
func ExtractCurrency(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	text := strings.TrimSpace(sel.First().Text())
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// ExtractDescription joins the text of the first selector that matches anything.
func ExtractDescription(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	for _, selector := range descriptionSelectors {
		nodes := doc.Find(selector)
		if nodes.Length() == 0 {
			continue
		}

		parts := make([]string, 0, min(nodes.Length(), MaxDescriptionNodes))
		nodes.EachWithBreak(func(idx int, s *goquery.Selection) bool {
			if idx >= MaxDescriptionNodes {
				return false
			}
			text := strings.TrimSpace(s.Text())
			if text != "" && len(text) < MaxDescriptionNodeLength {
				parts = append(parts, text)
			}
			return true
		})

		if len(parts) > 0 {
			joined := strings.Join(parts, "\n")
			if len(joined) > MaxDescriptionLength {
				joined = joined[:MaxDescriptionLength]
			}
			return joined
		}
	}

	return ""
}

// ExtractStockStatus reports whether the availability text says the product cannot be bought.
func ExtractStockStatus(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	status := strings.TrimSpace(doc.Find("#availability span").First().Text())
	return strings.EqualFold(status, unavailablePhrase)
}

// ExtractDiscountRate returns the percentage shown in the savings badge, or 0.
func ExtractDiscountRate(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	text := strings.TrimSpace(doc.Find(".savingsPercentage").First().Text())
	if text == "" || len(text) >= MaxDiscountTextLength {
		return 0
	}
	return scanInt(text, MaxDiscountScanChars, MaxDiscountDigits)
}

// ExtractReviewsCount returns the number of customer ratings, or 0.
func ExtractReviewsCount(doc *goquery.Document) int {
	if doc == nil {
		return 0
	}
	text := strings.TrimSpace(doc.Find("#acrCustomerReviewText").First().Text())
	if text == "" || len(text) >= MaxCounterTextLength {
		return 0
	}
	return scanInt(text, MaxCounterTextLength, MaxDiscountDigits)
}

// ExtractStars returns the average rating on a 0-5 scale, or 0.
func ExtractStars(doc *goquery.Document) float64 {
	if doc == nil {
		return 0
	}

	text, _ := doc.Find("#acrPopover").First().Attr("title")
	if strings.TrimSpace(text) == "" {
		text = doc.Find("#acrPopover .a-icon-alt, i.a-icon-star span.a-icon-alt").First().Text()
	}
	if len(text) >= MaxCounterTextLength {
		return 0
	}

	stars, err := strconv.ParseFloat(scanLeadingDecimal(text, MaxCounterTextLength), 64)
	if err != nil || stars < 0 || stars > 5 {
		return 0
	}
	return stars
}

// ExtractCategory returns the top-level department from the breadcrumb trail.
func ExtractCategory(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("#wayfinding-breadcrumbs_feature_div ul li a").First().Text())
}

// ExtractImage returns the first image listed in the dynamic-image attribute,
// falling back to the plain src of the landing image.
func ExtractImage(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	for _, selector := range []string{"#imgBlkFront", "#landingImage"} {
		attr, ok := doc.Find(selector).First().Attr("data-a-dynamic-image")
		if !ok || attr == "" || len(attr) > MaxImageAttrLength {
			continue
		}
		if image := firstJSONKey(attr); image != "" {
			return image
		}
	}

	src, _ := doc.Find("#landingImage").First().Attr("src")
	return strings.TrimSpace(src)
}

// firstJSONKey returns the first key of a JSON object in document order.
func firstJSONKey(raw string) string {
	dec := json.NewDecoder(strings.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ""
	}

	tok, err = dec.Token()
	if err != nil {
		return ""
	}
	key, _ := tok.(string)

	return key
}

// scanLeadingDecimal returns the first contiguous run of digits with at most one '.'.
// Unlike ScanPrice it does not join separate numbers, so "4.5 out of 5" yields "4.5".
func scanLeadingDecimal(text string, scanLimit int) string {
	start, end := -1, -1
	hasDot := false
	for i := 0; i < len(text) && i < scanLimit; i++ {
		c := text[i]
		if isDigit(c) {
			if start == -1 {
				start = i
			}
			end = i + 1
			continue
		}
		if c == '.' && start != -1 && !hasDot {
			hasDot = true
			continue
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return ""
	}
	return text[start:end]
}

// scanInt collects up to maxDigits digits from the first scanLimit bytes of text.
func scanInt(text string, scanLimit, maxDigits int) int {
	digits := make([]byte, 0, maxDigits)
	for i := 0; i < len(text) && i < scanLimit; i++ {
		if isDigit(text[i]) {
			digits = append(digits, text[i])
			if len(digits) >= maxDigits {
				break
			}
		}
	}
	if len(digits) == 0 {
		return 0
	}

	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
