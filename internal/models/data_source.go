package models

import "fmt"

// DataSource selects which raw observations feed preparation and training.
// The set is closed: the three modes below are the only ones supported.
type DataSource string

const (
	// SourceCombined uses every raw observation regardless of origin.
	SourceCombined DataSource = "combined"
	// SourceMarket restricts to observations from the primary market feed.
	SourceMarket DataSource = "market"
	// SourceUpload restricts to user-uploaded observations.
	SourceUpload DataSource = "upload"
)

// ParseDataSource validates a selector string. An empty string resolves to
// SourceCombined.
func ParseDataSource(s string) (DataSource, error) {
	switch DataSource(s) {
	case SourceCombined, SourceMarket, SourceUpload:
		return DataSource(s), nil
	case "":
		return SourceCombined, nil
	default:
		return "", fmt.Errorf("unknown data source %q (want combined, market or upload)", s)
	}
}

// Valid reports whether ds is one of the supported selectors.
func (ds DataSource) Valid() bool {
	switch ds {
	case SourceCombined, SourceMarket, SourceUpload:
		return true
	}
	return false
}
