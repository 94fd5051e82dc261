package common

import (
	"fmt"
	"net/http"
	"strconv"
)

// QueryBool reads a boolean query parameter, returning def when it is absent
func QueryBool(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", name, raw)
	}
	return v, nil
}

// QueryInt reads a non-negative integer query parameter, returning def when it is absent
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q is not a non-negative integer", name, raw)
	}
	return v, nil
}
