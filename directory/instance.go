package directory

import (
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Instance represents one configured directory endpoint and, once Connect has
// been called, its live session. The session lifecycle belongs entirely to the
// caller: searches never close or rebind it.
type Instance struct {
	Server   string
	Port     string
	Protocol string
	BaseDN   string
	PageSize uint32

	conn *ldap.Conn
}

func NewInstance(server, port, protocol, baseDN string, pageSize uint32) *Instance {
	return &Instance{
		Server:   server,
		Port:     port,
		Protocol: protocol,
		BaseDN:   baseDN,
		PageSize: pageSize,
	}
}

// Connect dials the directory server and performs a simple bind.
func (d *Instance) Connect(bindDN, password string) error {
	url := fmt.Sprintf("%s://%s:%s", d.Protocol, d.Server, d.Port)

	conn, err := ldap.DialURL(url)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}

	if err := conn.Bind(bindDN, password); err != nil {
		conn.Close()
		return fmt.Errorf("bind as %s: %w", bindDN, err)
	}

	// TODO: IWA/GSSAPI bind for domains that disallow simple binds
	if res, err := conn.WhoAmI(nil); err == nil {
		log.Info().Str("server", url).Str("authz", res.AuthzID).Msg("authenticated")
	}

	d.conn = conn
	return nil
}

// Close unbinds and releases the session.
func (d *Instance) Close() {
	if d.conn == nil {
		return
	}
	if err := d.conn.Unbind(); err != nil {
		log.Error().Err(err).Msg("unbind failed")
	}
	d.conn = nil
}

// Datasource is the provenance identity of this endpoint, the server host.
func (d *Instance) Datasource() string {
	return d.Server
}

// Search runs a single unpaged search under the configured base. A server-side
// size limit surfaces with a hint to use the paged variant instead.
func (d *Instance) Search(filter string) ([]*ldap.Entry, error) {
	if d.conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	req := ldap.NewSearchRequest(
		d.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		nil,
		nil,
	)

	res, err := d.conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return nil, fmt.Errorf("server-side size limit exceeded, use FetchPagedEntries: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return res.Entries, nil
}

// FetchPagedEntries runs a paged search under the configured base with the
// instance page size. attributes nil fetches everything.
func (d *Instance) FetchPagedEntries(filter string, attributes []string, timeLimit int) (*Result, error) {
	if d.conn == nil {
		return nil, fmt.Errorf("not connected")
	}
	return PagedSearch(d.conn, d.BaseDN, filter, attributes, d.PageSize, timeLimit)
}
