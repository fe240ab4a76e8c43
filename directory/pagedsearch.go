package directory

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Searcher is the session capability the query engine consumes: a connected,
// authenticated handle that can run one search request. *ldap.Conn satisfies
// it; tests substitute their own.
type Searcher interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
}

// Result is the complete output of one paginated search. PagingIgnored is set
// when the server did not return the RFC 2696 control, in which case Entries
// holds whatever the single round delivered.
type Result struct {
	Entries       []*ldap.Entry
	PagingIgnored bool
}

// pageState is the continuation status reported by one search round.
type pageState int

const (
	pageExhausted pageState = iota // control with empty or missing cookie
	pageMore                       // control with a cookie, another page follows
	pageIgnored                    // no paging control at all
)

// nextPageState inspects a round's response controls and returns the
// continuation state plus the cookie for the next round, if any.
func nextPageState(controls []ldap.Control) (pageState, []byte) {
	ctrl := ldap.FindControl(controls, ldap.ControlTypePaging)
	if ctrl == nil {
		return pageIgnored, nil
	}
	paging, ok := ctrl.(*ldap.ControlPaging)
	if !ok || len(paging.Cookie) == 0 {
		return pageExhausted, nil
	}
	return pageMore, paging.Cookie
}

// PagedSearch runs one logical search as a sequence of RFC 2696 rounds,
// accumulating every entry in arrival order. The page size is fixed for the
// whole search and timeLimit (seconds, 0 for none) applies to each round.
//
// A failed round aborts the operation with no partial results. A server that
// ignores the paging control is a degraded but valid outcome: the single
// round's entries are returned and the result is flagged.
func PagedSearch(conn Searcher, baseDN, filter string, attributes []string, pageSize uint32, timeLimit int) (*Result, error) {
	paging := ldap.NewControlPaging(pageSize)
	req := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, timeLimit, false,
		filter,
		attributes,
		[]ldap.Control{paging},
	)

	result := &Result{}
	for {
		res, err := conn.Search(req)
		if err != nil {
			return nil, fmt.Errorf("paged search failed: %w", err)
		}
		result.Entries = append(result.Entries, res.Entries...)

		state, cookie := nextPageState(res.Controls)
		switch state {
		case pageIgnored:
			log.Warn().Str("base", baseDN).Msg("server ignores the RFC 2696 paging control, returning a single page")
			result.PagingIgnored = true
			return result, nil
		case pageExhausted:
			return result, nil
		}
		paging.SetCookie(cookie)
	}
}
