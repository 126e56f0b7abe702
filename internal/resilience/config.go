package resilience

// ForCall builds a RetryConfig for one external call site. maxAttempts <= 0
// keeps the default; 1 disables retries.
func ForCall(maxAttempts int, service, operation string) RetryConfig {
	cfg := DefaultRetryConfig()
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	cfg.OnRetry = RetryLogger(service, operation)
	return cfg
}
