package source

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// jsonRow mirrors the transaction JSON shape. Amount accepts a number or a
// numeric string.
type jsonRow struct {
	ID                 string          `json:"id"`
	Date               string          `json:"date"`
	Title              string          `json:"title"`
	Amount             json.RawMessage `json:"amount"`
	Type               string          `json:"type"`
	Category           string          `json:"category"`
	Notes              string          `json:"notes"`
	Tags               []string        `json:"tags"`
	Recurring          bool            `json:"is_recurring"`
	RecurringFrequency string          `json:"recurring_frequency"`
}

// readJSON decodes a top-level array of transactions. Record line numbers
// are 1-based array positions.
func readJSON(r io.Reader) ([]record, error) {
	var rows []jsonRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "decoding json array")
	}

	records := make([]record, 0, len(rows))
	for i, row := range rows {
		records = append(records, record{
			line:      i + 1,
			id:        row.ID,
			date:      row.Date,
			title:     row.Title,
			amount:    strings.Trim(string(row.Amount), `"`),
			typ:       row.Type,
			category:  row.Category,
			notes:     row.Notes,
			tags:      row.Tags,
			recurring: row.Recurring,
			frequency: row.RecurringFrequency,
		})
	}
	return records, nil
}
