package erp

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikelcalvo/wms/internal/listcore"
)

func TestFlag(t *testing.T) {
	t.Run("Should marshal as 0 or 1", func(t *testing.T) {
		b, err := json.Marshal(struct {
			A Flag `json:"a"`
			B Flag `json:"b"`
		}{A: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1,"b":0}`, string(b))
	})

	t.Run("Should accept the forms servers send", func(t *testing.T) {
		for raw, want := range map[string]bool{`1`: true, `0`: false, `"1"`: true, `true`: true, `null`: false, `2`: true} {
			var f Flag
			require.NoError(t, json.Unmarshal([]byte(raw), &f), raw)
			assert.Equal(t, want, bool(f), raw)
		}
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		var f Flag
		assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
	})
}

func TestParseLines(t *testing.T) {
	t.Run("Should parse codes, quantities and rates", func(t *testing.T) {
		lines, err := ParseLines("CPU-I7:2:450, RAM-16:4; SSD-1T:1.5:89.90")
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Equal(t, "CPU-I7", lines[0].ItemCode)
		assert.Equal(t, 2.0, lines[0].Qty)
		assert.True(t, lines[0].Rate.Equal(decimal.NewFromInt(450)))
		assert.True(t, lines[1].Rate.IsZero())
		assert.Equal(t, 1.5, lines[2].Qty)
	})

	t.Run("Should report the bad entry", func(t *testing.T) {
		_, err := ParseLines("CPU-I7:two")
		var ve *listcore.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "items", ve.Field)
		assert.Contains(t, ve.Message, "CPU-I7:two")
	})

	t.Run("Should require at least one line", func(t *testing.T) {
		_, err := ParseLines(" , ")
		assert.ErrorContains(t, err, "at least one item")
	})

	t.Run("Should format back to the same text", func(t *testing.T) {
		lines, err := ParseLines("CPU-I7:2:450, RAM-16:4")
		require.NoError(t, err)
		assert.Equal(t, "CPU-I7:2:450, RAM-16:4", FormatLines(lines))
	})
}

func TestFormatCurrency(t *testing.T) {
	t.Run("Should group thousands", func(t *testing.T) {
		assert.Equal(t, "1,234,567.80", FormatCurrency(decimal.RequireFromString("1234567.8")))
		assert.Equal(t, "900.00", FormatCurrency(decimal.NewFromInt(900)))
		assert.Equal(t, "-1,000.50", FormatCurrency(decimal.RequireFromString("-1000.5")))
		assert.Equal(t, "0.00", FormatCurrency(decimal.Zero))
	})
}

func TestStockStatus(t *testing.T) {
	t.Run("Should classify quantities against safety stock", func(t *testing.T) {
		assert.Equal(t, StockOut, stockStatus(0, 5))
		assert.Equal(t, StockOut, stockStatus(-2, 5))
		assert.Equal(t, StockLow, stockStatus(5, 5))
		assert.Equal(t, StockIn, stockStatus(6, 5))
	})

	t.Run("Should show unknown until bins load", func(t *testing.T) {
		stock := &stockIndex{}
		e := inventoryEntity(stock)
		item := InventoryItem{ItemCode: "CPU-I7", SafetyStock: 5}
		assert.Equal(t, StockUnknown, e.Matcher.Status(item))

		stock.set([]Bin{
			{ItemCode: "CPU-I7", Warehouse: "A", ActualQty: 3},
			{ItemCode: "CPU-I7", Warehouse: "B", ActualQty: 1},
		})
		assert.Equal(t, StockLow, e.Matcher.Status(item))
		assert.Equal(t, StockOut, e.Matcher.Status(InventoryItem{ItemCode: "NONE"}))

		stock.reset()
		assert.Equal(t, StockUnknown, e.Matcher.Status(item))
	})
}

func TestDateValue(t *testing.T) {
	t.Run("Should treat unparseable dates like missing ones", func(t *testing.T) {
		assert.Nil(t, dateValue(""))
		assert.Nil(t, dateValue("31/12/2026"))
		assert.IsType(t, time.Time{}, dateValue("2026-12-31"))
	})

	t.Run("Should sort bad dates after good ones", func(t *testing.T) {
		orders := []SalesOrder{
			{Name: "SO-A", DeliveryDate: "soon"},
			{Name: "SO-B", DeliveryDate: "2026-12-01"},
			{Name: "SO-C", DeliveryDate: "2026-11-01"},
		}
		sorted := listcore.Sort(orders, listcore.SortState{Column: "delivery", Direction: listcore.Asc}, salesOrderEntity().Columns)
		var names []string
		for _, o := range sorted {
			names = append(names, o.Name)
		}
		assert.Equal(t, []string{"SO-C", "SO-B", "SO-A"}, names)
	})
}
