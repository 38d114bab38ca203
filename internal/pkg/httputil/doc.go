// Package httputil provides the shared JSON response helpers used by
// every API handler, so error envelopes and content types stay
// consistent across endpoints.
package httputil
