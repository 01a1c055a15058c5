package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/l0p7/routesweep/internal/sweep"
)

const (
	keyRoute      = "Route"
	keyMethod     = "Method"
	keyStatusCode = "Status Code"
	keyError      = "Error"
)

// WriteTable renders results as a grid. Columns follow the order in which each
// key first appears, so Error only shows up when some descriptor failed.
func WriteTable(w io.Writer, results []sweep.Result) error {
	if len(results) == 0 {
		_, err := io.WriteString(w, "\n")
		return err
	}

	var headers []string
	seen := make(map[string]bool)
	rows := make([]map[string]string, 0, len(results))
	for _, result := range results {
		row := make(map[string]string, 3)
		for _, key := range recordKeys(result) {
			if !seen[key] {
				seen[key] = true
				headers = append(headers, key)
			}
		}
		row[keyRoute] = result.Route
		row[keyMethod] = result.Method
		if result.StatusCode != nil {
			row[keyStatusCode] = strconv.Itoa(*result.StatusCode)
		} else {
			row[keyError] = result.Error
		}
		rows = append(rows, row)
	}

	columns := make([]column, len(headers))
	for i, header := range headers {
		columns[i] = newColumn(header, rows)
	}

	var b strings.Builder
	b.WriteString(rule(columns, '-'))
	b.WriteString(line(columns, func(c column) string { return c.header }))
	b.WriteString(rule(columns, '='))
	for _, row := range rows {
		b.WriteString(line(columns, func(c column) string { return row[c.header] }))
		b.WriteString(rule(columns, '-'))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("report: write table: %w", err)
	}
	return nil
}

func recordKeys(result sweep.Result) []string {
	if result.StatusCode != nil {
		return []string{keyRoute, keyMethod, keyStatusCode}
	}
	return []string{keyRoute, keyMethod, keyError}
}

type column struct {
	header     string
	width      int
	rightAlign bool
}

func newColumn(header string, rows []map[string]string) column {
	// Headers get two extra cells of room, as tabulate does.
	width := utf8.RuneCountInString(header) + 2
	populated, integers := 0, 0
	for _, row := range rows {
		value := row[header]
		if n := utf8.RuneCountInString(value); n > width {
			width = n
		}
		if value == "" {
			continue
		}
		populated++
		if _, err := strconv.Atoi(value); err == nil {
			integers++
		}
	}
	return column{header: header, width: width, rightAlign: populated > 0 && integers == populated}
}

func rule(columns []column, fill rune) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, c := range columns {
		b.WriteString(strings.Repeat(string(fill), c.width+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func line(columns []column, cell func(column) string) string {
	var b strings.Builder
	b.WriteByte('|')
	for _, c := range columns {
		value := cell(c)
		pad := strings.Repeat(" ", c.width-utf8.RuneCountInString(value))
		b.WriteByte(' ')
		if c.rightAlign {
			b.WriteString(pad + value)
		} else {
			b.WriteString(value + pad)
		}
		b.WriteString(" |")
	}
	b.WriteByte('\n')
	return b.String()
}
