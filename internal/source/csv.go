package source

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Header columns are matched by name, case-insensitively; unknown columns are
// ignored.
var requiredColumns = []string{"date", "title", "amount"}

func readCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		idx[h] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, errors.Errorf("missing required column %q", col)
		}
	}

	var records []record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading row")
		}
		line, _ := cr.FieldPos(0)
		if blank(row) {
			continue
		}

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		recurring, _ := strconv.ParseBool(strings.TrimSpace(get("is_recurring")))
		records = append(records, record{
			line:      line,
			id:        get("id"),
			date:      get("date"),
			title:     get("title"),
			amount:    get("amount"),
			typ:       get("type"),
			category:  get("category"),
			notes:     get("notes"),
			tags:      splitTags(get("tags")),
			recurring: recurring,
			frequency: get("recurring_frequency"),
		})
	}
	return records, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
