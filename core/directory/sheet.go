package directory

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	columnCategory = "Category"
	columnName     = "Name"
	columnNumber   = "Number"
)

// ErrMissingColumn reports a spreadsheet without a required header.
var ErrMissingColumn = errors.New("missing column")

// ParseAllowList reads the Number column of the first sheet.
func ParseAllowList(r io.Reader) (AllowList, error) {
	rows, header, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	col, err := header.index(columnNumber)
	if err != nil {
		return nil, err
	}

	var raw []string
	for _, row := range rows {
		if v := cell(row, col); v != "" {
			raw = append(raw, v)
		}
	}
	return NewAllowList(raw...), nil
}

// ParseContacts reads Category, Name and Number from the first sheet,
// keeping row order. Only Category is required; rows without one are
// skipped and absent Name or Number columns leave those fields empty.
func ParseContacts(r io.Reader) ([]Contact, error) {
	rows, header, err := readSheet(r)
	if err != nil {
		return nil, err
	}
	catCol, err := header.index(columnCategory)
	if err != nil {
		return nil, err
	}
	nameCol := header.optional(columnName)
	numCol := header.optional(columnNumber)

	contacts := make([]Contact, 0, len(rows))
	for _, row := range rows {
		c := Contact{
			Category: cell(row, catCol),
			Name:     cell(row, nameCol),
			Number:   cell(row, numCol),
		}
		if c.Category == "" {
			continue
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

type headerRow map[string]int

func (h headerRow) index(name string) (int, error) {
	if i, ok := h[name]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// optional returns the column index for name, or -1 when it is absent.
func (h headerRow) optional(name string) int {
	if i, ok := h[name]; ok {
		return i
	}
	return -1
}

func readSheet(r io.Reader) ([][]string, headerRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("open spreadsheet: no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, headerRow{}, nil
	}

	header := make(headerRow, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(name)
		if _, dup := header[name]; name != "" && !dup {
			header[name] = i
		}
	}
	return rows[1:], header, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
