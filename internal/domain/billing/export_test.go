package billing_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/freshkart/pos/internal/domain/billing"
	"github.com/freshkart/pos/internal/domain/cart"
)

var exportLines = []cart.Line{
	{Product: "Rice", PricePerKg: 60, WeightGrams: 500, Quantity: 2},
	{Product: "Dal", PricePerKg: 121, WeightGrams: 250, Quantity: 1},
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2025, time.February, 24, 15, 5, 45, 0, time.UTC)
	require.Equal(t, "24 Feb 2025_15t05m45s_cart.xlsx", billing.ExportFilename(at, "xlsx"))
	require.Equal(t, "24 Feb 2025_15t05m45s_cart.txt", billing.ExportFilename(at, "txt"))
}

func TestExportExcel(t *testing.T) {
	blob, err := billing.ExportExcel(exportLines, "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Cart")
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 2 lines + total

	require.Equal(t, []string{"S.No.", "Product", "Price per Kg", "Weight (g)", "Quantity", "Total Price"}, rows[0])
	require.Equal(t, []string{"1", "Rice", "60.00", "500", "2", "60.00"}, rows[1])
	require.Equal(t, []string{"2", "Dal", "121.00", "250", "1", "30.25"}, rows[2])

	// Aggregate total row: 60 + 30.25 rupees.
	require.Equal(t, "Total", rows[3][1])
	require.Equal(t, "₹90.25", rows[3][5])
}

func TestExportExcelWithCustomerBanner(t *testing.T) {
	blob, err := billing.ExportExcel(exportLines, "Asha")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	cell, err := f.GetCellValue("Cart", "A1")
	require.NoError(t, err)
	require.Equal(t, "Customer Name: Asha", cell)

	// Two blank rows, then the header on row 4.
	cell, err = f.GetCellValue("Cart", "A4")
	require.NoError(t, err)
	require.Equal(t, "S.No.", cell)
}

func TestExportReceipt(t *testing.T) {
	out := string(billing.ExportReceipt(exportLines, "Asha"))
	require.Contains(t, out, "Customer Name: Asha")
	require.Contains(t, out, "Rice")
	require.Contains(t, out, "30.25")
	require.Contains(t, out, "Total: ₹90.25")
}
