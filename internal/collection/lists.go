// internal/collection/lists.go
//
// JSON-column list types.  MySQL stores faq, skus, and product_ids as JSON
// text; these types scan and value that text so repository code can treat
// the columns as ordinary slices.
//
// Notes
//   - A nil list marshals as `[]`, never `null`.  Outbound payloads and API
//     responses rely on that: the CMS treats `null` and "empty" differently,
//     and we only ever mean "empty".
package collection

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

/*──────────────────────────── StringList ───────────────────────────*/

// StringList is a JSON array of strings (the admin-authored SKU list).
type StringList []string

// MarshalJSON renders a nil list as an empty array.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Value serializes the list for storage.
func (l StringList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan restores the list from its stored JSON text.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, l, "StringList")
}

/*───────────────────────────── IntList ─────────────────────────────*/

// IntList is a JSON array of catalog product identifiers.
type IntList []int64

func (l IntList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int64(l))
}

func (l IntList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *IntList) Scan(src any) error {
	return scanJSON(src, l, "IntList")
}

/*───────────────────────────── FAQList ─────────────────────────────*/

// FAQList is a JSON array of question/answer pairs.
type FAQList []FAQEntry

func (l FAQList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]FAQEntry(l))
}

func (l FAQList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *FAQList) Scan(src any) error {
	return scanJSON(src, l, "FAQList")
}

// scanJSON handles the driver representations MySQL hands back for JSON
// columns: []byte in the common case, string under some scan modes, and NULL
// for rows written before the column existed.
func scanJSON(src, dst any, kind string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("collection: cannot scan %T into %s", src, kind)
	}
}
