package ingest

import (
	"strings"

	"supplyline/internal/model"
	"supplyline/pkg/utils"
)

// Record field slots, in the positional column order used when a
// header carries no recognizable labels.
const (
	colDate = iota
	colSupplier
	colCategory
	colLicense
	colModel
	colLot
	colSerial
	colCustomer
	colQuantity
	colCount
)

// headerAliases maps cleaned header labels to field slots.
var headerAliases = map[string]int{
	"date":         colDate,
	"deliverydate": colDate,
	"delivery":     colDate,
	"supplier":     colSupplier,
	"vendor":       colSupplier,
	"category":     colCategory,
	"license":      colLicense,
	"licenseno":    colLicense,
	"licence":      colLicense,
	"model":        colModel,
	"lot":          colLot,
	"lotno":        colLot,
	"serial":       colSerial,
	"serialno":     colSerial,
	"customer":     colCustomer,
	"client":       colCustomer,
	"qty":          colQuantity,
	"quantity":     colQuantity,
	"units":        colQuantity,
}

// layout maps column indexes of the input to record field slots.
type layout struct {
	slots  []int // per input column, a col* constant or -1
	hasQty bool
}

// resolveHeader interprets the first line. Labels win over position:
// any recognized label maps its column, unknown columns are ignored.
// A discernible header must map a quantity column. A header with no
// recognized labels is still usable positionally when it carries
// exactly the full column set; anything else means the input has no
// discernible header.
func resolveHeader(header []string) (layout, bool) {
	l := layout{slots: make([]int, len(header))}
	matched := 0
	for i, cell := range header {
		l.slots[i] = -1
		if slot, ok := headerAliases[normalizeLabel(cell)]; ok {
			l.slots[i] = slot
			matched++
			if slot == colQuantity {
				l.hasQty = true
			}
		}
	}
	if matched > 0 {
		if !l.hasQty {
			return layout{}, false
		}
		return l, true
	}
	if len(header) == colCount {
		for i := range l.slots {
			l.slots[i] = i
		}
		l.hasQty = true
		return l, true
	}
	return layout{}, false
}

// normalizeLabel cleans a header cell the way the data cells are
// cleaned, then strips separators so "Delivery Date", "delivery_date"
// and "DeliveryDate" all resolve to the same alias.
func normalizeLabel(cell string) string {
	s := strings.ToLower(utils.CleanCell(cell))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// buildRecord converts one data line into a Record. It fails when the
// field count differs from the header's or the quantity cell does not
// coerce to a non-negative integer.
func (l layout) buildRecord(cells []string, headerLen int) (model.Record, bool) {
	if len(cells) != headerLen {
		return model.Record{}, false
	}

	var rec model.Record
	for i, cell := range cells {
		if i >= len(l.slots) {
			break
		}
		value := utils.CleanCell(cell)
		switch l.slots[i] {
		case colDate:
			canonical, _ := utils.CanonicalDate(value)
			rec.DeliveryDate = canonical
		case colSupplier:
			rec.Supplier = value
		case colCategory:
			rec.Category = value
		case colLicense:
			rec.License = value
		case colModel:
			rec.Model = value
		case colLot:
			rec.Lot = value
		case colSerial:
			rec.Serial = value
		case colCustomer:
			rec.Customer = value
		case colQuantity:
			qty, ok := utils.CoerceQuantity(value)
			if !ok {
				return model.Record{}, false
			}
			rec.Quantity = qty
		}
	}
	return rec, true
}
