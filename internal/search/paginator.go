package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pokevault/pokevault/internal/catalog"
)

// DefaultPageSize is the page size requested from the catalog.
const DefaultPageSize = 50

// ErrStaleSession is returned when a LoadMore response arrives after the
// session it belongs to has been superseded by a newer Execute. The
// response is discarded; the session is left untouched.
var ErrStaleSession = errors.New("search session superseded")

// CardSearcher is the slice of the catalog gateway the paginator needs.
type CardSearcher interface {
	SearchCards(ctx context.Context, query string, page, pageSize int) (*catalog.ResultPage, error)
}

// Session is the state of one executed search: the compiled query and the
// results accumulated across pages. Sessions are created by
// Paginator.Execute and grown by Paginator.LoadMore.
type Session struct {
	query      string
	generation uint64

	mu          sync.Mutex
	items       []catalog.Card
	page        int
	totalCount  int
	hasMore     bool
	loadingMore bool
}

// Query returns the compiled query string driving this session.
func (s *Session) Query() string { return s.query }

// Cards returns a copy of the accumulated results, in catalog order.
func (s *Session) Cards() []catalog.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Card, len(s.items))
	copy(out, s.items)
	return out
}

// Page returns the last page successfully applied to the session.
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// TotalCount returns the result total reported by the catalog.
func (s *Session) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCount
}

// HasMore reports whether further pages exist.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// LoadingMore reports whether a page request is currently in flight.
func (s *Session) LoadingMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadingMore
}

// PaginatorConfig configures a Paginator.
type PaginatorConfig struct {
	Searcher CardSearcher
	PageSize int // defaults to DefaultPageSize
	Logger   *slog.Logger
}

// Paginator compiles filters and drives paged catalog searches. A new
// Execute supersedes all prior sessions: late LoadMore responses for a
// superseded session are discarded rather than applied.
type Paginator struct {
	searcher   CardSearcher
	pageSize   int
	logger     *slog.Logger
	generation atomic.Uint64
}

// NewPaginator creates a Paginator.
func NewPaginator(config PaginatorConfig) (*Paginator, error) {
	if config.Searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if config.PageSize == 0 {
		config.PageSize = DefaultPageSize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Paginator{
		searcher: config.Searcher,
		pageSize: config.PageSize,
		logger:   config.Logger,
	}, nil
}

// Execute compiles the filters and starts a new session with page 1 of the
// results. ErrEmptyQuery propagates when the filters yield no clauses. An
// empty result is not an error: the session simply has no items and
// HasMore() false.
func (p *Paginator) Execute(ctx context.Context, filters FilterSet) (*Session, error) {
	query, err := Compile(filters)
	if err != nil {
		return nil, err
	}

	// Bumping the generation first invalidates every prior session, even
	// ones with a page request still in flight.
	gen := p.generation.Add(1)

	page, err := p.searcher.SearchCards(ctx, query, 1, p.pageSize)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	p.logger.Debug("search executed",
		"query", query,
		"results", len(page.Items),
		"totalCount", page.TotalCount)

	return &Session{
		query:      query,
		generation: gen,
		items:      page.Items,
		page:       1,
		totalCount: page.TotalCount,
		hasMore:    page.HasMore(),
	}, nil
}

// LoadMore fetches the next page and appends it to the session. It is a
// no-op when a request is already in flight or no further pages exist, so
// rapid repeated calls produce at most one outbound request. On failure the
// session's accumulated items and hasMore are left untouched and the error
// is returned; the session stays usable.
func (p *Paginator) LoadMore(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.loadingMore || !s.hasMore {
		s.mu.Unlock()
		return nil
	}
	s.loadingMore = true
	next := s.page + 1
	query := s.query
	s.mu.Unlock()

	page, err := p.searcher.SearchCards(ctx, query, next, p.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadingMore = false

	if err != nil {
		return fmt.Errorf("load page %d: %w", next, err)
	}

	if s.generation != p.generation.Load() {
		p.logger.Debug("discarding stale page response", "query", query, "page", next)
		return ErrStaleSession
	}

	if len(page.Items) == 0 {
		s.hasMore = false
		return nil
	}

	// Catalog order is authoritative; results are appended as received.
	s.items = append(s.items, page.Items...)
	s.page = next
	s.totalCount = page.TotalCount
	s.hasMore = page.HasMore()
	return nil
}
