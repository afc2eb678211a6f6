// Package httpclient is the client side of the event stream: it connects to
// an SSE endpoint, classifies connection failures and, when asked to,
// reconnects with Last-Event-ID after the server's retry delay.
package httpclient
