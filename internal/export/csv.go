package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/papertrader/internal/domain"
)

// Fixed decimal places used when rendering fill amounts.
const (
	quantityPlaces = 8
	pricePlaces    = 8
	feePlaces      = 8
)

var fillsHeader = []string{"ts", "side", "qty", "price", "fee", "order_id"}

// WriteFillsCSV writes fills in application order with a header row.
func WriteFillsCSV(w io.Writer, fills []domain.Fill) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fillsHeader); err != nil {
		return err
	}
	for _, f := range fills {
		rec := []string{
			strconv.FormatFloat(f.TS, 'f', -1, 64),
			f.Side.Label(),
			decimal.NewFromFloat(f.Quantity).StringFixed(quantityPlaces),
			decimal.NewFromFloat(f.Price).StringFixed(pricePlaces),
			decimal.NewFromFloat(f.Fee).StringFixed(feePlaces),
			strconv.FormatUint(f.OrderID, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
