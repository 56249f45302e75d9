// Package httputil holds the JSON helpers behind the operator API.
//
// Error bodies share one envelope: {"error", "request_id", "details"}. 5xx
// responses are logged with the chi request id and never echo the
// underlying error. The public tracking and unsubscribe routes do not use
// the envelope; they always answer with a pixel, a redirect or a page.
package httputil
