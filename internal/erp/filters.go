package erp

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// encodeFilters builds the filters parameter for resource list calls. The
// result is raw JSON; the HTTP client escapes it.
func encodeFilters(filters [][]any) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}

	encoded, err := json.Marshal(filters)
	if err != nil {
		return "", fmt.Errorf("failed to encode filters: %w", err)
	}
	return string(encoded), nil
}

// listQuery builds the query for a full, unpaginated resource listing.
func listQuery(fields []string, filters [][]any, orderBy string) (url.Values, error) {
	q := url.Values{}
	q.Set("limit_page_length", "0")
	if len(fields) > 0 {
		f, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to encode fields: %w", err)
		}
		q.Set("fields", string(f))
	}
	if orderBy != "" {
		q.Set("order_by", orderBy)
	}
	encoded, err := encodeFilters(filters)
	if err != nil {
		return nil, err
	}
	if encoded != "" {
		q.Set("filters", encoded)
	}
	return q, nil
}
