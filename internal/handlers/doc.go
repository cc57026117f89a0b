// Package handlers serves the HTTP API of mediascan serve.
//
// Routes:
//
//	GET  /healthz               store reachability, index statistics, runtime info
//	GET  /livez                 always 200 while the process runs
//	GET  /readyz                200 when the store answers a ping
//	GET  /version               build information
//	GET  /api/scan/{category}   run one scan and return the decoded items
//
// A scan request drives a mediastore.Scanner to completion; cancelling the
// request cancels the scan.
package handlers
