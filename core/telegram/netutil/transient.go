package netutil

import (
	"errors"
	"net"
	"net/url"
)

// IsTransient reports whether a network error looks temporary: dial
// failures and timeouts produced by net/http while contacting the
// Telegram API. Callers only record it; nothing is retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return IsTransient(urlErr.Err)
		}
	}

	return false
}
