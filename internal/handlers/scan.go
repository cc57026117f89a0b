package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"media-helper/internal/logging"
	"media-helper/internal/mediastore"
	"media-helper/internal/mediatypes"
)

// ScanResponse is the body of a successful scan request.
type ScanResponse struct {
	Category mediatypes.Category `json:"category"`
	Total    int                 `json:"total"`
	Items    []mediastore.Item   `json:"items"`
}

type scanResult struct {
	items []mediastore.Item
	err   error
}

// ScanCategory runs one scan over the category in the path and returns the
// decoded items. Query parameters:
//
//	q      substring of the display name
//	sort   name, title, size, added or modified
//	order  asc (default) or desc
//	limit  maximum number of items in the response
func (h *Handlers) ScanCategory(w http.ResponseWriter, r *http.Request) {
	category, err := mediatypes.ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	params := r.URL.Query()
	order, err := mediastore.OrderBy(params.Get("sort"), params.Get("order"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := 0
	if v := params.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeJSONError(w, fmt.Sprintf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.ScanTimeout)
	defer cancel()

	opts := []mediastore.Option{mediastore.WithContext(ctx)}
	if h.cfg.Pool != nil {
		opts = append(opts, mediastore.WithPool(h.cfg.Pool))
	}
	if h.cfg.Poster != nil {
		opts = append(opts, mediastore.WithPoster(h.cfg.Poster))
	}
	scanner, err := mediastore.NewScanner(category, h.store, mediastore.ItemDecoder(category), opts...)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	scanner.SortOrder(order)
	if h.cfg.UpdateThrottle > 0 {
		scanner.UpdateThrottle(h.cfg.UpdateThrottle)
	}
	if q := strings.TrimSpace(params.Get("q")); q != "" {
		selection, arg := mediastore.Contains(mediastore.ColumnDisplayName, q)
		scanner.Selection(selection).SelectionArgs(arg)
	}

	// Error and Finished run one after the other on the delivery poster.
	done := make(chan scanResult, 1)
	var res scanResult
	cb := mediastore.CallbackFuncs[mediastore.Item]{
		Error: func(err error) { res.err = errors.Join(res.err, err) },
		Finished: func(items []mediastore.Item) {
			res.items = items
			done <- res
		},
	}
	if err := scanner.Scan(cb); err != nil {
		writeJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var result scanResult
	select {
	case result = <-done:
	case <-ctx.Done():
		scanner.Cancel()
		logging.Warn("Scan of %s abandoned: %v", category, ctx.Err())
		writeJSONError(w, "scan did not finish: "+ctx.Err().Error(), http.StatusGatewayTimeout)
		return
	}

	if result.err != nil {
		writeJSONError(w, result.err.Error(), http.StatusInternalServerError)
		return
	}

	items := result.items
	if items == nil {
		items = []mediastore.Item{}
	}
	total := len(items)
	if limit > 0 && limit < total {
		items = items[:limit]
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ScanResponse{Category: category, Total: total, Items: items})
}
