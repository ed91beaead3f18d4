package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"choromap/internal/logger"
	"choromap/internal/measure"
)

// ParseCSV：首行为表头，其后每行转换为 列名 → 原始字符串
// 约束：列数不齐或引号不规范的行尽量容忍；单行解析失败跳过，不中断批次
func ParseCSV(r io.Reader) ([]measure.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	var rows []measure.Row
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		row := make(measure.Row, len(header))
		for i, h := range header {
			if i < len(rec) && h != "" {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		logger.L().Debug("csv_rows_skipped", "count", skipped)
	}
	return rows, nil
}
