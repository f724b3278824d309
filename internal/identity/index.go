package identity

import "github.com/Houeta/price-radar/internal/models"

// Index is a dual-key lookup over known products. Records are found either by
// canonical URL or by stable identifier; both maps point at the owning URL.
type Index struct {
	byURL map[string]string
	byID  map[string]string
}

// NewIndex builds an Index from stored identities.
func NewIndex(identities []models.Identity) *Index {
	idx := &Index{
		byURL: make(map[string]string, len(identities)),
		byID:  make(map[string]string, len(identities)),
	}
	for _, ident := range identities {
		idx.Add(ident.URL, ident.ProductID)
	}
	return idx
}

// Add registers a product under its URL and, when present, its stable identifier.
func (i *Index) Add(url, productID string) {
	if url != "" {
		i.byURL[url] = url
	}
	if productID != "" {
		owner := url
		if owner == "" {
			owner = productID
		}
		i.byID[productID] = owner
	}
}

// Lookup returns the URL of the known product matching either key.
// The stable identifier is checked first as it is the stronger key.
func (i *Index) Lookup(url, productID string) (string, bool) {
	if productID != "" {
		if owner, ok := i.byID[productID]; ok {
			return owner, true
		}
	}
	if url != "" {
		if owner, ok := i.byURL[url]; ok {
			return owner, true
		}
	}
	return "", false
}

// Contains reports whether either key is already known.
func (i *Index) Contains(url, productID string) bool {
	_, ok := i.Lookup(url, productID)
	return ok
}

// Len returns the number of distinct URLs in the index.
func (i *Index) Len() int {
	return len(i.byURL)
}
