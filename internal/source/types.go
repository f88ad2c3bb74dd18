package source

import (
	"github.com/theirongolddev/spendwise/internal/categorize"
	"github.com/theirongolddev/spendwise/internal/model"
)

// Format identifies an import file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DiscoveredFile is an import file found during directory scanning.
type DiscoveredFile struct {
	Path   string
	Format Format
}

// Options controls how rows become transactions.
type Options struct {
	// UserID is stamped on every parsed transaction.
	UserID string
	// Classifier fills in missing expense categories. Nil uses the built-in table.
	Classifier *categorize.Classifier
}

// ParseResult holds the output of parsing a single import file.
type ParseResult struct {
	Transactions []model.Transaction
	// Invalid counts rows that were skipped; RowErrors says why.
	Invalid   int
	RowErrors []error
	Err       error
}

// record is a format-neutral row before validation.
type record struct {
	line      int
	id        string
	date      string
	title     string
	amount    string
	typ       string
	category  string
	notes     string
	tags      []string
	recurring bool
	frequency string
}
