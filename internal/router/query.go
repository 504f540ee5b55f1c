package router

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const defaultPageSize = 10

// applyQuery applies field filters, sorting and pagination to a collection.
// Underscore-prefixed parameters are operators; everything else filters on
// a field by rendered-value equality.
func applyQuery(items []interface{}, q url.Values) []interface{} {
	items = filterItems(items, q)
	items = sortItems(items, q.Get("_sort"), q.Get("_order"))
	return paginate(items, q.Get("_page"), q.Get("_limit"))
}

func filterItems(items []interface{}, q url.Values) []interface{} {
	out := items
	for key, vals := range q {
		if strings.HasPrefix(key, "_") || len(vals) == 0 {
			continue
		}

		want := vals[0]
		kept := make([]interface{}, 0, len(out))
		for _, v := range out {
			item, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			if renderValue(item[key]) == want {
				kept = append(kept, v)
			}
		}
		out = kept
	}
	return out
}

func sortItems(items []interface{}, field, order string) []interface{} {
	if field == "" {
		return items
	}

	out := make([]interface{}, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].(map[string]interface{})
		b, bok := out[j].(map[string]interface{})
		if !aok || !bok {
			return false
		}

		less := lessValue(a[field], b[field])
		if strings.EqualFold(order, "desc") {
			return lessValue(b[field], a[field])
		}
		return less
	})

	return out
}

func lessValue(a, b interface{}) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return renderValue(a) < renderValue(b)
}

func paginate(items []interface{}, pageStr, limitStr string) []interface{} {
	if pageStr == "" && limitStr == "" {
		return items
	}

	limit := defaultPageSize
	if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
		limit = n
	}

	page := 1
	if n, err := strconv.Atoi(pageStr); err == nil && n > 0 {
		page = n
	}

	start := (page - 1) * limit
	if start >= len(items) {
		return []interface{}{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// renderValue renders a field for string comparison against a query value
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
