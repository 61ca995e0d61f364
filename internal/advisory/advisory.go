// Package advisory maps predicted classes to static treatment guidance.
package advisory

// Record is the guidance shown next to a prediction.
type Record struct {
	Description string `json:"description"`
	Organic     string `json:"organic"`
	Chemical    string `json:"chemical"`
	ProductName string `json:"product_name"`
	ProductLink string `json:"product_link"`
}

// Lookup returns the record for label, or Default when the label has no
// dedicated entry. It never fails and the returned value is a copy.
func Lookup(label string) Record {
	if rec, ok := table[label]; ok {
		return rec
	}
	return defaultRecord
}

// Has reports whether label has a dedicated record.
func Has(label string) bool {
	_, ok := table[label]
	return ok
}

// Default returns the fallback record.
func Default() Record {
	return defaultRecord
}
