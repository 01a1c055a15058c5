package sweep

import (
	"context"
	"net/http"
)

type requestBuilder func(ctx context.Context, target string) (*http.Request, error)

// dispatchTable is matched by exact method name; "get" is not GET.
var dispatchTable = map[string]requestBuilder{
	http.MethodGet:    newRequest(http.MethodGet),
	http.MethodPost:   newRequest(http.MethodPost),
	http.MethodPut:    newRequest(http.MethodPut),
	http.MethodDelete: newRequest(http.MethodDelete),
	http.MethodPatch:  newRequest(http.MethodPatch),
}

func newRequest(method string) requestBuilder {
	return func(ctx context.Context, target string) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, method, target, http.NoBody)
	}
}

// Supported reports whether method has an entry in the dispatch table.
func Supported(method string) bool {
	_, ok := dispatchTable[method]
	return ok
}

// UnsupportedMethodError is recorded for descriptors whose method is not
// dispatchable. It never reaches the network.
type UnsupportedMethodError struct {
	Method string
}

func (e UnsupportedMethodError) Error() string {
	return "Unsupported HTTP method: " + e.Method
}
