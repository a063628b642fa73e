package upload

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseFile picks a parser from the file extension.
func ParseFile(name string, r io.Reader) (Table, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case "", ".csv", ".txt":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
}

// ParseCSV reads comma-separated text. The first non-blank line is the header;
// blank lines are skipped and short rows read missing cells as empty.
func ParseCSV(r io.Reader) (Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var builder tableBuilder
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return Table{}, &ParseError{Line: csvErr.Line, Err: csvErr.Err}
			}
			return Table{}, &ParseError{Err: err}
		}
		line, _ := reader.FieldPos(0)
		builder.add(line, cells)
	}
	return builder.table, nil
}

type tableBuilder struct {
	table Table
}

func (b *tableBuilder) add(line int, cells []string) {
	if isBlank(cells) {
		return
	}
	if b.table.Header == nil {
		b.table.Header = normalizeHeader(cells)
		return
	}
	values := make(map[string]string, len(b.table.Header))
	for i, column := range b.table.Header {
		if column == "" {
			continue
		}
		if _, seen := values[column]; seen {
			continue
		}
		value := ""
		if i < len(cells) {
			value = strings.TrimSpace(cells[i])
		}
		values[column] = value
	}
	b.table.Rows = append(b.table.Rows, Row{Line: line, Values: values})
}

func normalizeHeader(cells []string) []string {
	header := make([]string, len(cells))
	for i, cell := range cells {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}
	return header
}

func isBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
