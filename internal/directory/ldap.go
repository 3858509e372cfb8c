// Package directory implements the directory query port over LDAP, the way
// the engine reaches a real Active Directory. All lookups are read-only.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"adlens/internal/domain"
)

// Config holds LDAP connection settings.
type Config struct {
	URL          string // ldap:// or ldaps:// URL
	BaseDN       string // search base for identity resolution
	BindDN       string // empty for anonymous bind
	BindPassword string
	Timeout      time.Duration // per-request time limit (default 30s)
}

// LDAPDirectory is a domain.DirectoryRepository backed by a single LDAP
// connection. go-ldap multiplexes requests over the connection, so one
// instance serves concurrent traversals.
type LDAPDirectory struct {
	conn    *ldap.Conn
	baseDN  string
	timeout time.Duration
	logger  *slog.Logger
}

// Connect dials the directory and binds. The caller must Close the result.
func Connect(cfg Config, logger *slog.Logger) (*LDAPDirectory, error) {
	if cfg.URL == "" {
		return nil, domain.ErrValidation("LDAP URL is required")
	}
	if cfg.BaseDN == "" {
		return nil, domain.ErrValidation("LDAP base DN is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	conn, err := ldap.DialURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	conn.SetTimeout(cfg.Timeout)

	if cfg.BindDN != "" {
		err = conn.Bind(cfg.BindDN, cfg.BindPassword)
	} else {
		err = conn.UnauthenticatedBind("")
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bind as %q: %w", cfg.BindDN, err)
	}

	return &LDAPDirectory{
		conn:    conn,
		baseDN:  cfg.BaseDN,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying connection.
func (d *LDAPDirectory) Close() {
	_ = d.conn.Close()
}

// objectAttributes are fetched for every resolved object.
var objectAttributes = []string{
	"distinguishedName",
	"objectClass",
	"displayName",
	"cn",
	"sAMAccountName",
	"userAccountControl",
	"lastLogonTimestamp",
	"description",
	"department",
	"mail",
}

// ResolveObject resolves a sAMAccountName, DN, or userPrincipalName to
// exactly one object.
func (d *LDAPDirectory) ResolveObject(ctx context.Context, identity string) (*domain.DirectoryObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == "" {
		return nil, domain.ErrValidation("identity is required")
	}

	// A DN-shaped identity is looked up directly; anything else is matched
	// against account name and UPN under the base DN.
	if looksLikeDN(identity) {
		return d.fetchByDN(identity)
	}

	escaped := ldap.EscapeFilter(identity)
	filter := fmt.Sprintf("(|(sAMAccountName=%s)(userPrincipalName=%s))", escaped, escaped)
	req := d.searchRequest(d.baseDN, ldap.ScopeWholeSubtree, filter)

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", identity, err)
	}
	switch len(res.Entries) {
	case 0:
		return nil, domain.ErrNotFound("no directory object matches %q", identity)
	case 1:
		return entryToObject(res.Entries[0]), nil
	default:
		return nil, domain.ErrNotFound("identity %q is ambiguous: %d matches", identity, len(res.Entries))
	}
}

// GetMembershipsOf returns the direct member-of parents of the object.
func (d *LDAPDirectory) GetMembershipsOf(ctx context.Context, dn string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := d.searchRequest(dn, ldap.ScopeBaseObject, "(objectClass=*)")
	req.Attributes = []string{"memberOf"}

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, domain.ErrLookup("memberships of %q: %v", dn, err)
	}
	if len(res.Entries) == 0 {
		return nil, domain.ErrLookup("object %q vanished during traversal", dn)
	}
	return res.Entries[0].GetAttributeValues("memberOf"), nil
}

// GetMembersOf returns the direct members of a group with their kinds. Each
// member costs one base-scope lookup to classify it; a member that cannot
// be classified is reported as KindUnknown rather than dropped silently.
func (d *LDAPDirectory) GetMembersOf(ctx context.Context, groupDN string) ([]domain.MemberRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := d.searchRequest(groupDN, ldap.ScopeBaseObject, "(objectClass=*)")
	req.Attributes = []string{"member"}

	res, err := d.conn.Search(req)
	if err != nil {
		return nil, domain.ErrLookup("members of %q: %v", groupDN, err)
	}
	if len(res.Entries) == 0 {
		return nil, domain.ErrLookup("group %q vanished during traversal", groupDN)
	}

	memberDNs := res.Entries[0].GetAttributeValues("member")
	refs := make([]domain.MemberRef, 0, len(memberDNs))
	for _, dn := range memberDNs {
		kind, err := d.kindOf(dn)
		if err != nil {
			d.logger.Warn("member classification failed", "dn", dn, "error", err)
			kind = domain.KindUnknown
		}
		refs = append(refs, domain.MemberRef{DN: dn, Kind: kind})
	}
	return refs, nil
}

// GetAttributes fetches extended attributes for a known DN.
func (d *LDAPDirectory) GetAttributes(ctx context.Context, dn string, _ domain.ObjectKind) (*domain.DirectoryObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.fetchByDN(dn)
}

func (d *LDAPDirectory) fetchByDN(dn string) (*domain.DirectoryObject, error) {
	req := d.searchRequest(dn, ldap.ScopeBaseObject, "(objectClass=*)")

	res, err := d.conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, domain.ErrNotFound("no directory object at %q", dn)
		}
		return nil, domain.ErrLookup("fetch %q: %v", dn, err)
	}
	if len(res.Entries) == 0 {
		return nil, domain.ErrNotFound("no directory object at %q", dn)
	}
	return entryToObject(res.Entries[0]), nil
}

// kindOf classifies a DN by its objectClass values.
func (d *LDAPDirectory) kindOf(dn string) (domain.ObjectKind, error) {
	req := d.searchRequest(dn, ldap.ScopeBaseObject, "(objectClass=*)")
	req.Attributes = []string{"objectClass"}

	res, err := d.conn.Search(req)
	if err != nil {
		return domain.KindUnknown, err
	}
	if len(res.Entries) == 0 {
		return domain.KindUnknown, fmt.Errorf("no entry at %q", dn)
	}
	return kindFromClasses(res.Entries[0].GetAttributeValues("objectClass")), nil
}

func (d *LDAPDirectory) searchRequest(base string, scope int, filter string) *ldap.SearchRequest {
	return ldap.NewSearchRequest(
		base,
		scope,
		ldap.NeverDerefAliases,
		0, // no size limit; the engine applies its own node budget
		int(d.timeout.Seconds()),
		false,
		filter,
		objectAttributes,
		nil,
	)
}

func looksLikeDN(identity string) bool {
	return strings.Contains(identity, "=") && strings.Contains(identity, ",") ||
		strings.HasPrefix(strings.ToLower(identity), "cn=")
}
