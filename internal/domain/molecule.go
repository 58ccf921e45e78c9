package domain

import "fmt"

// Category identifies one of the three result collections shown by a panel.
type Category string

const (
	CategorySimilar    Category = "similar"
	CategoryCommercial Category = "commercial"
	CategoryPubChem    Category = "pubchem"
)

// Categories lists every category in display order.
var Categories = []Category{CategorySimilar, CategoryCommercial, CategoryPubChem}

// IsValid checks if the category is a known value
func (c Category) IsValid() bool {
	switch c {
	case CategorySimilar, CategoryCommercial, CategoryPubChem:
		return true
	}
	return false
}

// Title returns the heading rendered above the category's list.
func (c Category) Title() string {
	switch c {
	case CategorySimilar:
		return "Similar Structures"
	case CategoryCommercial:
		return "Commercial Reagents"
	case CategoryPubChem:
		return "PubChem Results"
	}
	return string(c)
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", NewDomainErrorWithCause(ErrCodeValidation, ErrInvalidCategory.Message, fmt.Errorf("unknown category %q", s))
	}
	return c, nil
}

// SearchResult is a single structure returned by a search, with its similarity
// to the query in [0,1]. Ordering is whatever the source returned.
type SearchResult struct {
	SMILES     string  `json:"smiles" yaml:"smiles"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// FormatSimilarity renders a score with two decimals.
func FormatSimilarity(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

// ResultSet holds the three result collections. Each collection is replaced
// wholesale on every retrieval.
type ResultSet struct {
	Similar    []SearchResult `json:"similar_structures" yaml:"similar_structures"`
	Commercial []SearchResult `json:"commercial_reagents" yaml:"commercial_reagents"`
	PubChem    []SearchResult `json:"pubchem_results" yaml:"pubchem_results"`
}

// EmptyResultSet returns a set whose collections are empty but non-nil.
func EmptyResultSet() ResultSet {
	return ResultSet{
		Similar:    []SearchResult{},
		Commercial: []SearchResult{},
		PubChem:    []SearchResult{},
	}
}

// Get returns the collection for a category.
func (rs ResultSet) Get(c Category) []SearchResult {
	switch c {
	case CategorySimilar:
		return rs.Similar
	case CategoryCommercial:
		return rs.Commercial
	case CategoryPubChem:
		return rs.PubChem
	}
	return nil
}

// Set replaces the collection for a category. A nil slice is stored as empty.
func (rs *ResultSet) Set(c Category, results []SearchResult) {
	if results == nil {
		results = []SearchResult{}
	}
	switch c {
	case CategorySimilar:
		rs.Similar = results
	case CategoryCommercial:
		rs.Commercial = results
	case CategoryPubChem:
		rs.PubChem = results
	}
}

// Clone returns a deep copy with nil collections normalised to empty.
func (rs ResultSet) Clone() ResultSet {
	out := EmptyResultSet()
	for _, c := range Categories {
		src := rs.Get(c)
		dst := make([]SearchResult, len(src))
		copy(dst, src)
		out.Set(c, dst)
	}
	return out
}

// Counts returns the number of results per category.
func (rs ResultSet) Counts() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = len(rs.Get(c))
	}
	return counts
}
