package analysis

import (
	"math"

	"ideaboard/internal/models"
)

// Ideal entropy for a useful feature column, in bits.
const idealEntropy = 4.0

func isNullCell(value string) bool {
	switch value {
	case "", "null", "NULL", "None":
		return true
	}
	return false
}

// columnQuality scores one column from its raw cell values. total is the
// dataset's row count, so short rows count as nulls.
func columnQuality(name string, values []string, total int) models.ColumnQuality {
	q := models.ColumnQuality{Column: name}

	counts := make(map[string]int)
	nonNull := 0
	for _, v := range values {
		if isNullCell(v) {
			continue
		}
		nonNull++
		counts[v]++
	}

	q.DistinctCount = len(counts)
	if total > 0 {
		q.NullRate = float64(total-nonNull) / float64(total)
	}
	if nonNull > 0 {
		q.UniquenessRatio = float64(q.DistinctCount) / float64(nonNull)
	}
	q.Entropy = shannonEntropy(counts, nonNull)

	// Nearly all distinct and nearly never empty
	q.LikelyID = q.UniquenessRatio > 0.95 && q.NullRate < 0.05

	score := 1.0 - q.NullRate
	score *= math.Max(0.5, 1.0-math.Abs(q.Entropy-idealEntropy)/10.0)
	q.Score = math.Max(0, math.Min(1, score))
	return q
}

func shannonEntropy(counts map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

func csvQuality(headers []string, rows [][]string) []models.ColumnQuality {
	out := make([]models.ColumnQuality, len(headers))
	for i, name := range headers {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		out[i] = columnQuality(name, values, len(rows))
	}
	return out
}

func jsonQuality(columns []string, records []map[string]interface{}) []models.ColumnQuality {
	out := make([]models.ColumnQuality, len(columns))
	for i, col := range columns {
		values := make([]string, 0, len(records))
		for _, rec := range records {
			v, ok := rec[col]
			if !ok || v == nil {
				continue
			}
			values = append(values, stringify(v))
		}
		out[i] = columnQuality(col, values, len(records))
	}
	return out
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
