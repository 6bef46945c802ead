package extract

import (
	"math"
	"strings"
	"time"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// ISOLayout is the millisecond RFC 3339 layout used for every ISO string the
// pipeline emits.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// millisThreshold separates epoch seconds from epoch milliseconds. Seconds
// values above it would lie past the year 5000.
const millisThreshold = 1e11

// Epoch seconds of 0001-01-01T00:00:00Z and 9999-12-31T23:59:59Z. Purchase
// times outside this range have no four-digit-year rendering.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

// Address reads a postal address object. Full is the comma-joined list of
// the parts that are present. It returns nil when no part is present.
func Address(node any) *types.Address {
	m, ok := Map(node)
	if !ok {
		return nil
	}

	addr := &types.Address{
		Street:   StringPtr(m["street"]),
		Street2:  StringPtr(m["street2"]),
		Suburb:   StringPtr(m["suburb"]),
		State:    StringPtr(m["state"]),
		Postcode: StringPtr(m["postcode"]),
		Country:  StringPtr(m["country"]),
	}

	var parts []string
	for _, p := range []*string{addr.Street, addr.Street2, addr.Suburb, addr.State, addr.Postcode, addr.Country} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return nil
	}

	addr.Full = strings.Join(parts, ", ")
	return addr
}

// Merchant reads the store block of a payload.
func Merchant(node any) types.Merchant {
	return types.Merchant{
		TradingName: StringPtr(Lookup(node, "trading_name")),
		StoreName:   StringPtr(Lookup(node, "name")),
		ABN:         StringPtr(Lookup(node, "abn")),
		Phone:       StringPtr(Lookup(node, "phone")),
		Address:     Address(Lookup(node, "address")),
	}
}

// Timestamps derives every rendering of the purchase time from the upstream
// created_at value, which may be epoch seconds (number or numeric string),
// epoch milliseconds, or an RFC 3339 string. Date and Time are in UTC.
func Timestamps(created, timezone any) types.Timestamps {
	ts := types.Timestamps{Timezone: StringPtr(timezone)}

	t, ok := purchaseTime(created)
	if !ok {
		return ts
	}

	epoch := t.Unix()
	iso := t.Format(ISOLayout)
	date := t.Format("2006-01-02")
	clock := t.Format("15:04")

	ts.EpochSeconds = &epoch
	ts.ISO = &iso
	ts.Date = &date
	ts.Time = &clock
	return ts
}

func purchaseTime(node any) (time.Time, bool) {
	if f, ok := Coerce(node); ok {
		if math.Abs(f) > millisThreshold {
			f /= 1000
		}
		if f < minEpochSeconds || f > maxEpochSeconds {
			return time.Time{}, false
		}
		return time.Unix(int64(math.Floor(f)), 0).UTC(), true
	}

	s, ok := String(node)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC().Truncate(time.Second), true
}
