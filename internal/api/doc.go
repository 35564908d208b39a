// Package api exposes topic generation over HTTP: a route that requests a
// generation run and a route that reports its progress. It translates
// service errors into status codes and keeps internal error details out of
// responses.
package api
