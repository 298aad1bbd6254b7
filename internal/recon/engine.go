package recon

import "math"

// EngineInput carries the per-day figures the comparisons run over. Optional
// figures are nil when the underlying ledger has nothing for the day.
type EngineInput struct {
	MeterTotalLiters float64
	TxnLiters        float64
	TxnAmount        float64
	SellingPrice     *float64
	GaugeEstimate    *float64
	GaugeRemaining   *float64
	StockLevel       *float64
}

// Compare runs the four comparisons against the thresholds. Comparisons with
// a missing side are skipped rather than reported as zero deltas.
func Compare(in EngineInput, t Thresholds) []Discrepancy {
	rows := []Discrepancy{
		compare(KindMeterVsTransactions, in.MeterTotalLiters, in.TxnLiters, t.MeterTxnLiters, false),
	}
	if in.GaugeEstimate != nil {
		rows = append(rows, compare(KindGaugeVsMeter, *in.GaugeEstimate, in.MeterTotalLiters, t.GaugeMeterLiters, false))
	}
	if in.GaugeRemaining != nil && in.StockLevel != nil {
		rows = append(rows, compare(KindGaugeVsStock, *in.GaugeRemaining, *in.StockLevel, t.StockLiters, true))
	}
	if in.SellingPrice != nil {
		expected := round2(in.MeterTotalLiters * *in.SellingPrice)
		rows = append(rows, compare(KindRevenue, expected, in.TxnAmount, t.RevenueCurrency, false))
	}
	return rows
}

// compare builds one row. strict flags only when |delta| exceeds the
// threshold; otherwise reaching it is enough.
func compare(kind Kind, expected, actual, threshold float64, strict bool) Discrepancy {
	delta := round2(expected - actual)
	flagged := math.Abs(delta) >= threshold
	if strict {
		flagged = math.Abs(delta) > threshold
	}
	return Discrepancy{
		Kind:      kind,
		Expected:  round2(expected),
		Actual:    round2(actual),
		Delta:     delta,
		Threshold: threshold,
		Flagged:   flagged,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
