package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"factsheet/pkg/contracts/domain"
)

// SectorWeights groups holdings by Industry and sums every numeric column per
// group. Text columns other than Industry are dropped. Groups are sorted by
// industry name; rows without an industry are grouped under "".
func SectorWeights(holdings domain.Table) (domain.SectorWeights, error) {
	key := holdings.ColumnIndex(domain.ColumnIndustry)
	if key < 0 {
		return domain.SectorWeights{}, fmt.Errorf("holdings have no %q column", domain.ColumnIndustry)
	}

	var (
		columns []string
		indexes []int
	)
	for i, name := range holdings.Columns {
		if i != key && holdings.IsNumericColumn(i) {
			columns = append(columns, name)
			indexes = append(indexes, i)
		}
	}

	sums := make(map[string][]decimal.Decimal)
	for _, row := range holdings.Rows {
		industry := ""
		if key < len(row) {
			industry = row[key].String()
		}
		acc, ok := sums[industry]
		if !ok {
			acc = make([]decimal.Decimal, len(indexes))
			sums[industry] = acc
		}
		for j, col := range indexes {
			if col < len(row) && row[col].Kind == domain.CellNumber {
				acc[j] = acc[j].Add(row[col].Number)
			}
		}
	}

	industries := make([]string, 0, len(sums))
	for industry := range sums {
		industries = append(industries, industry)
	}
	sort.Strings(industries)

	weights := domain.SectorWeights{Columns: columns, Groups: make([]domain.SectorWeight, 0, len(industries))}
	for _, industry := range industries {
		weights.Groups = append(weights.Groups, domain.SectorWeight{Industry: industry, Sums: sums[industry]})
	}
	return weights, nil
}
