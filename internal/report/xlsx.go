package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fuelbook/fuelbook/internal/journal"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a currency amount with digit grouping for the
// summary sheet.
func FormatAmount(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// BuildMonthlyXLSX renders the monthly summary as a two-sheet workbook:
// totals on "summary", one row per day on "days".
func BuildMonthlyXLSX(summary MonthlySummary) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	daysSheet := "days"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(daysSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Monthly Reconciliation Summary")
	_ = f.SetCellValue(summarySheet, "A3", "Station")
	_ = f.SetCellValue(summarySheet, "B3", summary.StationName)
	_ = f.SetCellValue(summarySheet, "A4", "Month")
	_ = f.SetCellValue(summarySheet, "B4", summary.Month.Format("2006-01"))
	_ = f.SetCellValue(summarySheet, "A5", "Total Liters (meter)")
	_ = f.SetCellValue(summarySheet, "B5", summary.TotalLiters)
	_ = f.SetCellValue(summarySheet, "A6", "Total Revenue")
	_ = f.SetCellValue(summarySheet, "B6", FormatAmount(summary.TotalRevenue))
	_ = f.SetCellValue(summarySheet, "A7", "Supply Intake (liters)")
	_ = f.SetCellValue(summarySheet, "B7", summary.SupplyLiters)
	_ = f.SetCellValue(summarySheet, "A8", "Flagged Days")
	_ = f.SetCellValue(summarySheet, "B8", summary.FlaggedDays)

	row := 10
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Payment Type")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), "Count")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), "Liters")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), "Amount")
	for _, payment := range paymentOrder(summary) {
		row++
		line := summary.ByPayment[payment]
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(payment))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), line.Count)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), line.Liters.InexactFloat64())
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), FormatAmount(line.Amount.InexactFloat64()))
	}

	_ = f.SetCellValue(daysSheet, "A1", "Date")
	_ = f.SetCellValue(daysSheet, "B1", "Status")
	_ = f.SetCellValue(daysSheet, "C1", "Meter Liters")
	_ = f.SetCellValue(daysSheet, "D1", "Txn Liters")
	_ = f.SetCellValue(daysSheet, "E1", "Revenue")
	_ = f.SetCellValue(daysSheet, "F1", "Supply Liters")
	_ = f.SetCellValue(daysSheet, "G1", "Flagged")
	for i, day := range summary.Days {
		r := i + 2
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("A%d", r), day.Date.Format("2006-01-02"))
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("B%d", r), string(day.DayStatus))
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("C%d", r), day.MeterLiters)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("D%d", r), day.TxnLiters)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("E%d", r), day.Revenue)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("F%d", r), day.SupplyLiters)
		_ = f.SetCellValue(daysSheet, fmt.Sprintf("G%d", r), day.Flagged)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paymentOrder(summary MonthlySummary) []journal.PaymentType {
	order := []journal.PaymentType{journal.PaymentCash, journal.PaymentTransfer, journal.PaymentCredit}
	present := order[:0]
	for _, p := range order {
		if _, ok := summary.ByPayment[p]; ok {
			present = append(present, p)
		}
	}
	return present
}
