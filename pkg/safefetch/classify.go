package safefetch

import (
	"context"
	"errors"
	"net"
	"net/url"
)

const (
	abortedMessage     = "The operation was aborted"
	fetchFailedMessage = "Failed to fetch"
)

// classifyTransportError maps a failure raised by the transport itself, before
// any usable response existed, onto the fetch subkinds. Cancellation and
// deadline expiry are aborts; malformed request targets are syntax failures;
// any network-layer failure (DNS, refused connection, reset) is a type
// failure. Whatever remains is surfaced as unknown with its message intact.
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newFetchError(KindAbort, abortedMessage)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Op == "parse" {
			return newFetchError(KindSyntax, err.Error())
		}
		cause := fetchFailedMessage
		if urlErr.Err != nil {
			cause += ": " + urlErr.Err.Error()
		}
		return newFetchError(KindType, cause)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return newFetchError(KindType, fetchFailedMessage+": "+netErr.Error())
	}

	return newUnknownError(err)
}
