package directory

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ldap/ldap/v3"
)

// fakeSearcher serves canned pages and records every request it sees.
type fakeSearcher struct {
	pages       [][]*ldap.Entry
	withControl bool
	failAtCall  int // 0 means never fail

	calls   int
	filters []string
	cookies [][]byte
}

func (f *fakeSearcher) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.calls++
	f.filters = append(f.filters, req.Filter)

	if ctrl := ldap.FindControl(req.Controls, ldap.ControlTypePaging); ctrl != nil {
		f.cookies = append(f.cookies, ctrl.(*ldap.ControlPaging).Cookie)
	}

	if f.failAtCall > 0 && f.calls == f.failAtCall {
		return nil, errors.New("connection reset")
	}

	page := f.pages[f.calls-1]
	res := &ldap.SearchResult{Entries: page}
	if f.withControl {
		paging := ldap.NewControlPaging(0)
		if f.calls < len(f.pages) {
			paging.SetCookie([]byte(fmt.Sprintf("cookie-%d", f.calls)))
		}
		res.Controls = []ldap.Control{paging}
	}
	return res, nil
}

func makeEntries(start, n int) []*ldap.Entry {
	entries := make([]*ldap.Entry, n)
	for i := range entries {
		entries[i] = &ldap.Entry{DN: fmt.Sprintf("CN=user%d,DC=example,DC=org", start+i)}
	}
	return entries
}

func TestPagedSearchSinglePage(t *testing.T) {
	// empty cookie after one round: one round trip, no warning flag
	searcher := &fakeSearcher{
		pages:       [][]*ldap.Entry{makeEntries(0, 3)},
		withControl: true,
	}

	result, err := PagedSearch(searcher, "DC=example,DC=org", "(objectClass=*)", nil, 10, 0)
	if err != nil {
		t.Fatalf("PagedSearch failed: %v", err)
	}
	if searcher.calls != 1 {
		t.Errorf("expected 1 round trip, got %d", searcher.calls)
	}
	if len(result.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(result.Entries))
	}
	if result.PagingIgnored {
		t.Errorf("PagingIgnored set for a server that honored the control")
	}
}

func TestPagedSearchMultiPage(t *testing.T) {
	// 2*pageSize + 1 entries across three pages
	searcher := &fakeSearcher{
		pages: [][]*ldap.Entry{
			makeEntries(0, 2),
			makeEntries(2, 2),
			makeEntries(4, 1),
		},
		withControl: true,
	}

	result, err := PagedSearch(searcher, "DC=example,DC=org", "(objectClass=user)", nil, 2, 0)
	if err != nil {
		t.Fatalf("PagedSearch failed: %v", err)
	}
	if searcher.calls != 3 {
		t.Errorf("expected 3 round trips, got %d", searcher.calls)
	}
	if len(result.Entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(result.Entries))
	}

	// arrival order, no duplicates, no omissions
	for i, entry := range result.Entries {
		want := fmt.Sprintf("CN=user%d,DC=example,DC=org", i)
		if entry.DN != want {
			t.Errorf("entry %d: got DN %q, want %q", i, entry.DN, want)
		}
	}

	// every round reuses the same filter
	for i, filter := range searcher.filters {
		if filter != "(objectClass=user)" {
			t.Errorf("round %d used filter %q", i, filter)
		}
	}

	// the response cookie of round n drives the request of round n+1
	if string(searcher.cookies[1]) != "cookie-1" {
		t.Errorf("round 2 carried cookie %q, want %q", searcher.cookies[1], "cookie-1")
	}
	if string(searcher.cookies[2]) != "cookie-2" {
		t.Errorf("round 3 carried cookie %q, want %q", searcher.cookies[2], "cookie-2")
	}
}

func TestPagedSearchControlAbsent(t *testing.T) {
	searcher := &fakeSearcher{
		pages:       [][]*ldap.Entry{makeEntries(0, 2)},
		withControl: false,
	}

	result, err := PagedSearch(searcher, "DC=example,DC=org", "(objectClass=*)", nil, 10, 0)
	if err != nil {
		t.Fatalf("a server ignoring the paging control must not error: %v", err)
	}
	if searcher.calls != 1 {
		t.Errorf("expected 1 round trip, got %d", searcher.calls)
	}
	if !result.PagingIgnored {
		t.Errorf("PagingIgnored not set")
	}
	if len(result.Entries) != 2 {
		t.Errorf("expected the single round's 2 entries, got %d", len(result.Entries))
	}
}

func TestPagedSearchErrorDiscardsPartialResults(t *testing.T) {
	searcher := &fakeSearcher{
		pages: [][]*ldap.Entry{
			makeEntries(0, 2),
			nil,
		},
		withControl: true,
		failAtCall:  2,
	}

	result, err := PagedSearch(searcher, "DC=example,DC=org", "(objectClass=*)", nil, 2, 0)
	if err == nil {
		t.Fatalf("expected an error from the failing round")
	}
	if result != nil {
		t.Errorf("expected no partial results, got %d entries", len(result.Entries))
	}
}

func TestNextPageState(t *testing.T) {
	withCookie := ldap.NewControlPaging(0)
	withCookie.SetCookie([]byte("next"))

	tests := []struct {
		name     string
		controls []ldap.Control
		want     pageState
		cookie   string
	}{
		{"no controls", nil, pageIgnored, ""},
		{"empty cookie", []ldap.Control{ldap.NewControlPaging(0)}, pageExhausted, ""},
		{"cookie present", []ldap.Control{withCookie}, pageMore, "next"},
	}

	for _, test := range tests {
		state, cookie := nextPageState(test.controls)
		if state != test.want {
			t.Errorf("%s: got state %v, want %v", test.name, state, test.want)
		}
		if string(cookie) != test.cookie {
			t.Errorf("%s: got cookie %q, want %q", test.name, cookie, test.cookie)
		}
	}
}
