// Package middleware provides the HTTP middleware used by the API server:
// W3C Extended Log Format request logging, Prometheus request metrics
// labelled by route template, and gzip compression of JSON responses.
package middleware
