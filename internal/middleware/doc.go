// Package middleware provides HTTP middleware for mediascan serve: request
// metrics labelled by mux route template and an access log in W3C Extended
// Log Format field order.
package middleware
