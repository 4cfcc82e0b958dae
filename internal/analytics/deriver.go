package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

// ReturnPlaces is the number of decimal places the fund return is rounded to.
const ReturnPlaces = 4

// Deriver computes DerivedAnalytics. It holds no state between funds.
type Deriver struct {
	logger *slog.Logger
}

// NewDeriver creates a deriver. A nil logger uses slog.Default().
func NewDeriver(logger *slog.Logger) *Deriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deriver{logger: logger}
}

// Derive computes return, sector weights and the anchored history of raw.
// The raw input is never modified.
func (d *Deriver) Derive(ctx context.Context, raw domain.RawFundData) (domain.DerivedAnalytics, error) {
	fund := raw.Fund.String()

	history := SortHistory(raw.History)
	fundReturn, err := FundReturn(fund, history)
	if err != nil {
		return domain.DerivedAnalytics{}, err
	}

	sectors, err := SectorWeights(raw.Holdings)
	if err != nil {
		return domain.DerivedAnalytics{}, reporterrors.InvalidData(fund, err.Error())
	}

	anchored := AnchorHistory(history)

	d.logger.DebugContext(ctx, "Derived analytics",
		slog.String("fund", fund),
		slog.String("fund_return", fundReturn.String()),
		slog.Int("sectors", len(sectors.Groups)),
		slog.Int("history_points", len(anchored.Points)))

	return domain.DerivedAnalytics{
		FundReturn:    fundReturn,
		SectorWeights: sectors,
		History:       anchored,
	}, nil
}

// SortHistory returns a copy of h sorted ascending by date. Points on the
// same date keep their input order.
func SortHistory(h domain.HistorySeries) domain.HistorySeries {
	out := h.Clone()
	sort.SliceStable(out.Points, func(i, j int) bool {
		return out.Points[i].Date.Before(out.Points[j].Date)
	})
	return out
}

// FundReturn is last/first - 1 of the Fund column over the real observations
// of h, rounded to ReturnPlaces. h must already be sorted. A zero or missing
// first value is an InvalidData error; it is never reported as zero.
func FundReturn(fund string, h domain.HistorySeries) (decimal.Decimal, error) {
	col := h.ColumnIndex(domain.ColumnFund)
	if col < 0 {
		return decimal.Decimal{}, reporterrors.InvalidData(fund,
			fmt.Sprintf("history has no %q column", domain.ColumnFund))
	}

	points := h.Observations()
	if len(points) == 0 {
		return decimal.Decimal{}, reporterrors.InvalidData(fund, "history is empty")
	}

	first, last := points[0], points[len(points)-1]
	if col >= len(first.Values) || !first.Values[col].Valid {
		return decimal.Decimal{}, reporterrors.InvalidData(fund,
			fmt.Sprintf("first %s value on %s is missing", domain.ColumnFund, first.Date.Format(domain.DateLayout)))
	}
	if col >= len(last.Values) || !last.Values[col].Valid {
		return decimal.Decimal{}, reporterrors.InvalidData(fund,
			fmt.Sprintf("last %s value on %s is missing", domain.ColumnFund, last.Date.Format(domain.DateLayout)))
	}

	initial := first.Values[col].Decimal
	if initial.IsZero() {
		return decimal.Decimal{}, reporterrors.InvalidData(fund,
			fmt.Sprintf("first %s value on %s is zero", domain.ColumnFund, first.Date.Format(domain.DateLayout)))
	}

	final := last.Values[col].Decimal
	// DivRound keeps enough precision that the final rounding is exact
	ratio := final.DivRound(initial, 16)
	return ratio.Sub(decimal.NewFromInt(1)).Round(ReturnPlaces), nil
}

// AnchorHistory inserts one synthetic point on January 1st of the first
// point's year with every value marked "no value", then re-sorts. h must be
// sorted; the result is a new series. An empty series is returned unchanged.
func AnchorHistory(h domain.HistorySeries) domain.HistorySeries {
	out := h.Clone()
	if len(out.Points) == 0 {
		return out
	}

	first := out.Points[0].Date
	anchor := domain.HistoryPoint{
		Date:      time.Date(first.Year(), time.January, 1, 0, 0, 0, 0, first.Location()),
		Values:    make([]decimal.NullDecimal, len(out.Columns)),
		Synthetic: true,
	}

	out.Points = append([]domain.HistoryPoint{anchor}, out.Points...)
	sort.SliceStable(out.Points, func(i, j int) bool {
		return out.Points[i].Date.Before(out.Points[j].Date)
	})
	return out
}
