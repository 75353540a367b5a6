package request

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// RouteIntParam returns an URL route parameter as int.
func RouteIntParam(r *http.Request, param string) int {
	vars := mux.Vars(r)
	value, err := strconv.Atoi(vars[param])
	if err != nil {
		return 0
	}

	if value < 0 {
		return 0
	}

	return value
}

// QueryStringParam returns a query string parameter or the default.
func QueryStringParam(r *http.Request, param, defaultValue string) string {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	return value
}

// QueryIntParam returns a query string parameter as int or the default.
func QueryIntParam(r *http.Request, param string, defaultValue int) int {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// QueryBoolParam returns a query string parameter as bool pointer, nil when
// absent or unparseable.
func QueryBoolParam(r *http.Request, param string) *bool {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil
	}
	return &b
}

// HasQueryParam reports whether the parameter is present in the URL.
func HasQueryParam(r *http.Request, param string) bool {
	values := r.URL.Query()
	_, ok := values[param]
	return ok
}
