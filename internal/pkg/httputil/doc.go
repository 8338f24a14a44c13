// Package httputil holds the JSON response envelope and request decoding
// helpers shared by all API handlers.
package httputil
