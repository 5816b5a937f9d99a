// Package server exposes annotation sessions over a JSON HTTP API for the
// browser front-end.
package server
