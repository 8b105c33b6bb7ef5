package billing

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/freshkart/pos/internal/domain/cart"
)

// Export header, shared by both variants.
var exportHeader = []interface{}{"S.No.", "Product", "Price per Kg", "Weight (g)", "Quantity", "Total Price"}

const currency = "₹" // ₹

// ExportFilename builds the export file name the way the cashiers expect
// them sorted on disk, e.g. "24 Feb 2025_15t05m45s_cart.xlsx".
func ExportFilename(now time.Time, ext string) string {
	return now.Format("2 Jan 2006_15t04m05s") + "_cart." + ext
}

// cartTotal reproduces the billing formula; the exports are presentation
// only, the Bill batch stays the financial source of truth.
func cartTotal(lines []cart.Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Total()
	}
	return sum
}

// ExportExcel renders the cart as a spreadsheet: optional customer-name
// banner, header row, one row per line and a closing total row.
func ExportExcel(lines []cart.Line, customerName string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, "Cart"); err != nil {
		return nil, err
	}
	sheet = "Cart"

	row := 1
	writeRow := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		row++
		return nil
	}

	if customerName != "" {
		for _, r := range [][]interface{}{
			{fmt.Sprintf("Customer Name: %s", customerName)},
			{""},
			{""},
		} {
			if err := writeRow(r); err != nil {
				return nil, err
			}
		}
	}
	if err := writeRow(exportHeader); err != nil {
		return nil, err
	}
	for i, l := range lines {
		if err := writeRow([]interface{}{
			i + 1,
			l.Product,
			fmt.Sprintf("%.2f", l.PricePerKg),
			l.WeightGrams,
			l.Quantity,
			fmt.Sprintf("%.2f", l.Total()),
		}); err != nil {
			return nil, err
		}
	}
	total := []interface{}{"", "Total", "", "", "", fmt.Sprintf("%s%.2f", currency, cartTotal(lines))}
	if err := writeRow(total); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportReceipt renders the cart as a plain-text document with the same
// per-line totals and the aggregate total line.
func ExportReceipt(lines []cart.Line, customerName string) []byte {
	var buf bytes.Buffer
	if customerName != "" {
		fmt.Fprintf(&buf, "Customer Name: %s\n\n", customerName)
	}
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "S.No.\tProduct\tPrice per Kg\tWeight (g)\tQuantity\tTotal Price")
	for i, l := range lines {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%d\t%d\t%.2f\n",
			i+1, l.Product, l.PricePerKg, l.WeightGrams, l.Quantity, l.Total())
	}
	_ = w.Flush()
	fmt.Fprintf(&buf, "\nTotal: %s%.2f\n", currency, cartTotal(lines))
	return buf.Bytes()
}
