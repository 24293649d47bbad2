package metrics

import "time"

// AddressVerification records an address verification attempt.
func AddressVerification(result string) {
	if !enabled {
		return
	}
	addressVerificationTotal.WithLabelValues(result).Inc()
}

// AddressPrepare records a verification preparation request.
func AddressPrepare(result string) {
	if !enabled {
		return
	}
	addressPrepareTotal.WithLabelValues(result).Inc()
}

// TokenInfoImport records a token info import attempt.
func TokenInfoImport(provider, result string) {
	if !enabled {
		return
	}
	tokenInfoImportTotal.WithLabelValues(provider, result).Inc()
}

// ObserveExplorerRequest records one request to the explorer API.
func ObserveExplorerRequest(operation, status string, duration time.Duration) {
	if !enabled {
		return
	}
	explorerRequestsTotal.WithLabelValues(operation, status).Inc()
	explorerDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
