// Package source discovers and parses CSV and JSON transaction exports.
package source

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendwise/internal/categorize"
	"github.com/theirongolddev/spendwise/internal/model"
)

// rowNamespace seeds the IDs of rows that carry no id of their own.
var rowNamespace = uuid.MustParse("6d1f0b8e-93a4-5c2e-b7f1-4a0c8e2d5b36")

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ParseFile reads an import file and converts each row into a validated
// transaction. Rows that fail validation are counted in Invalid and skipped;
// only an unreadable or malformed file sets Err.
func ParseFile(df DiscoveredFile, opts Options) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	var records []record
	switch df.Format {
	case FormatCSV:
		records, err = readCSV(f)
	case FormatJSON:
		records, err = readJSON(f)
	default:
		err = errors.Errorf("unsupported format %q", df.Format)
	}
	if err != nil {
		return ParseResult{Err: errors.Wrap(err, df.Path)}
	}

	classifier := opts.Classifier
	occurrences := make(map[string]int)
	var result ParseResult
	for _, r := range records {
		t, err := r.transaction(opts.UserID, classifier)
		if err == nil {
			if t.ID == "" {
				t.ID = rowID(df.Path, t, occurrences)
			}
			err = t.Validate()
		}
		if err != nil {
			result.Invalid++
			result.RowErrors = append(result.RowErrors, errors.Wrapf(err, "%s:%d", df.Path, r.line))
			continue
		}
		result.Transactions = append(result.Transactions, t)
	}
	return result
}

// rowID derives a stable ID from the row's owner, file and content. Identical
// rows in one file are told apart by how many came before them, so appending
// rows to an export leaves earlier IDs unchanged.
func rowID(path string, t model.Transaction, occurrences map[string]int) string {
	key := strings.Join([]string{
		t.UserID,
		path,
		t.Date.Format("2006-01-02"),
		t.Title,
		t.Amount.String(),
		string(t.Type),
	}, "|")
	n := occurrences[key]
	occurrences[key]++
	return uuid.NewSHA1(rowNamespace, []byte(key+"|"+strconv.Itoa(n))).String()
}

// transaction normalizes a raw record. An empty type defaults to expense;
// a negative amount with no type is read as an expense of its magnitude.
// The result is not validated and its ID is empty when the row has none.
func (r record) transaction(userID string, c *categorize.Classifier) (model.Transaction, error) {
	title := strings.TrimSpace(r.title)

	date, err := parseDate(r.date)
	if err != nil {
		return model.Transaction{}, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.amount))
	if err != nil {
		return model.Transaction{}, &model.ValidationError{Field: "amount", Reason: "not a number: " + r.amount}
	}

	typ := model.Expense
	if s := strings.ToLower(strings.TrimSpace(r.typ)); s != "" {
		if typ, err = model.ParseType(s); err != nil {
			return model.Transaction{}, err
		}
	} else if amount.IsNegative() {
		amount = amount.Abs()
	}

	category := strings.TrimSpace(r.category)
	if category == "" {
		switch {
		case typ == model.Income:
			category = categorize.Income
		case c != nil:
			category = c.Categorize(title, amount)
		default:
			category = categorize.Categorize(title, amount)
		}
	}

	return model.Transaction{
		ID:                 strings.TrimSpace(r.id),
		UserID:             userID,
		Title:              title,
		Amount:             amount,
		Type:               typ,
		Category:           category,
		Date:               date,
		Notes:              strings.TrimSpace(r.notes),
		Tags:               model.NormalizeTags(r.tags),
		Recurring:          r.recurring,
		RecurringFrequency: model.Frequency(strings.ToLower(strings.TrimSpace(r.frequency))),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &model.ValidationError{Field: "date", Reason: "required"}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOnly(t), nil
		}
	}
	return time.Time{}, &model.ValidationError{Field: "date", Reason: "unrecognized date " + s}
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' }) {
		tags = append(tags, strings.TrimSpace(tag))
	}
	return tags
}
