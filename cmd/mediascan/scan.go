package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"media-helper/internal/database"
	"media-helper/internal/logging"
	"media-helper/internal/mediastore"
	"media-helper/internal/mediatypes"
	"media-helper/internal/startup"
)

type scanOptions struct {
	query string
	order string
	limit int
}

// scanOutput is one category's result as printed by scan.
type scanOutput struct {
	Category mediatypes.Category `json:"category"`
	Total    int                 `json:"total"`
	Items    []mediastore.Item   `json:"items"`
}

func runScan(ctx context.Context, cfg *startup.Config, db *database.Database, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(out)
	query := fs.String("q", "", "only items whose display name contains text")
	sortKey := fs.String("sort", "name", "sort key: name, title, size, added, modified")
	desc := fs.Bool("desc", false, "sort descending")
	limit := fs.Int("limit", 20, "items listed per category (0 = all)")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	categories, err := parseTargets(fs.Args())
	if err != nil {
		return err
	}
	direction := "asc"
	if *desc {
		direction = "desc"
	}
	order, err := mediastore.OrderBy(*sortKey, direction)
	if err != nil {
		return err
	}
	opts := scanOptions{query: strings.TrimSpace(*query), order: order, limit: *limit}

	progress := newProgress(out)
	results := make([]scanOutput, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			items, err := scanCategory(gctx, cfg, db, category, opts, progress)
			results[i] = scanOutput{Category: category, Total: len(items), Items: items}
			return err
		})
	}
	err = g.Wait()
	progress.done()
	if err != nil {
		return err
	}

	for i := range results {
		if opts.limit > 0 && len(results[i].Items) > opts.limit {
			results[i].Items = results[i].Items[:opts.limit]
		}
	}
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printTable(out, results)
	return nil
}

func parseTargets(args []string) ([]mediatypes.Category, error) {
	if len(args) != 1 {
		return nil, errors.New("scan needs exactly one of audio, video, image or all")
	}
	if args[0] == "all" {
		return mediatypes.Categories, nil
	}
	category, err := mediatypes.ParseCategory(args[0])
	if err != nil {
		return nil, err
	}
	return []mediatypes.Category{category}, nil
}

// scanCategory runs one Scanner to completion. Cancelling ctx cancels the
// scan and returns the context error.
func scanCategory(ctx context.Context, cfg *startup.Config, db *database.Database, category mediatypes.Category, opts scanOptions, progress *progress) ([]mediastore.Item, error) {
	scanner, err := mediastore.NewScanner(category, db, mediastore.ItemDecoder(category), mediastore.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	scanner.SortOrder(opts.order).UpdateThrottle(cfg.UpdateThrottle)
	if opts.query != "" {
		selection, arg := mediastore.Contains(mediastore.ColumnDisplayName, opts.query)
		scanner.Selection(selection).SelectionArgs(arg)
	}

	type result struct {
		items []mediastore.Item
		err   error
	}
	done := make(chan result, 1)
	var res result
	cb := mediastore.CallbackFuncs[mediastore.Item]{
		Start: func() { progress.update(category, 0, 0) },
		Progress: func(index, total int, _ mediastore.Item) {
			progress.update(category, index, total)
		},
		Error: func(err error) { res.err = errors.Join(res.err, err) },
		Finished: func(items []mediastore.Item) {
			res.items = items
			progress.update(category, len(items), len(items))
			done <- res
		},
	}
	if err := scanner.Scan(cb); err != nil {
		return nil, err
	}

	select {
	case r := <-done:
		if r.err != nil {
			return r.items, fmt.Errorf("scan %s: %w", category, r.err)
		}
		logging.Debug("Scan of %s returned %d items", category, len(r.items))
		return r.items, nil
	case <-ctx.Done():
		scanner.Cancel()
		return nil, ctx.Err()
	}
}

func printTable(out io.Writer, results []scanOutput) {
	for _, r := range results {
		fmt.Fprintf(out, "%s: %d items\n", r.Category, r.Total)
		for _, it := range r.Items {
			fmt.Fprintf(out, "  %6d  %-40s %10d  %s\n", it.ID, truncate(it.DisplayName, 40), it.Size, it.URI)
		}
		if hidden := r.Total - len(r.Items); hidden > 0 {
			fmt.Fprintf(out, "  ... %d more\n", hidden)
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

// progress renders a single status line on terminals and nothing
// elsewhere.
type progress struct {
	out     io.Writer
	enabled bool

	mu    sync.Mutex
	state map[mediatypes.Category][2]int
	drawn bool
}

func newProgress(out io.Writer) *progress {
	p := &progress{out: out, state: make(map[mediatypes.Category][2]int)}
	if f, ok := out.(*os.File); ok {
		p.enabled = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progress) update(category mediatypes.Category, index, total int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state[category] = [2]int{index, total}

	keys := make([]string, 0, len(p.state))
	for c := range p.state {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		s := p.state[mediatypes.Category(k)]
		parts[i] = fmt.Sprintf("%s %d/%d", k, s[0], s[1])
	}
	fmt.Fprintf(p.out, "\r\033[K%s", strings.Join(parts, "  "))
	p.drawn = true
}

// done ends the status line.
func (p *progress) done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drawn {
		fmt.Fprintln(p.out)
		p.drawn = false
	}
}
