package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/sg-semilla/semilla-auth/internal/config"
)

const (
	defaultLDAPTimeout = 10 * time.Second

	// uacAccountDisable is the ACCOUNTDISABLE flag of userAccountControl.
	uacAccountDisable = 0x2

	attrUserAccountControl = "userAccountControl"
	attrMemberOf           = "memberOf"
)

// LDAPDirectory authenticates against an LDAP or Active Directory server.
// Every call binds as the user on a fresh connection, there is no service account.
type LDAPDirectory struct {
	config  config.LDAP
	timeout time.Duration
}

// NewLDAPDirectory creates a directory from cfg. It returns ErrDirectoryDisabled
// when LDAP is not enabled.
func NewLDAPDirectory(cfg config.LDAP) (*LDAPDirectory, error) {
	if !cfg.Enabled {
		return nil, ErrDirectoryDisabled
	}

	if cfg.BindFormat == "" {
		cfg.BindFormat = "{username}"
	}

	if cfg.UserFilter == "" {
		cfg.UserFilter = "(&(objectClass=user)(sAMAccountName={username}))"
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultLDAPTimeout
	}

	return &LDAPDirectory{config: cfg, timeout: timeout}, nil
}

// URL returns the server address, ldaps:// when UseSSL is set.
func (d *LDAPDirectory) URL() string {
	hostPort := net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))

	if d.config.UseSSL {
		return "ldaps://" + hostPort
	}

	return "ldap://" + hostPort
}

// Connect establishes a connection to the LDAP server.
func (d *LDAPDirectory) Connect() (*ldap.Conn, error) {
	var tlsConfig *tls.Config
	if d.config.UseSSL || d.config.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: d.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         d.config.Host,
		}
	}

	conn, err := ldap.DialURL(d.URL(),
		ldap.DialWithTLSConfig(tlsConfig),
		ldap.DialWithDialer(&net.Dialer{Timeout: d.timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !d.config.UseSSL && d.config.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)
			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(d.timeout)

	return conn, nil
}

// Authenticate binds as identifier and inspects its entry. It gives up when
// ctx is done, closing the connection to abort the pending request.
func (d *LDAPDirectory) Authenticate(ctx context.Context, identifier, secret string) (DirectoryStatus, error) {
	if secret == "" {
		return DirectoryInvalidCredentials, nil
	}

	conn, err := d.Connect()
	if err != nil {
		return DirectoryNotFound, err
	}

	type result struct {
		status DirectoryStatus
		err    error
	}

	done := make(chan result, 1)

	go func() {
		status, errAuth := d.authenticate(conn, identifier, secret)
		done <- result{status: status, err: errAuth}
	}()

	select {
	case res := <-done:
		closeConn(conn)
		return res.status, res.err
	case <-ctx.Done():
		closeConn(conn)
		return DirectoryNotFound, fmt.Errorf("directory call aborted: %w", ctx.Err())
	}
}

func (d *LDAPDirectory) authenticate(conn *ldap.Conn, identifier, secret string) (DirectoryStatus, error) {
	bindName := strings.ReplaceAll(d.config.BindFormat, "{username}", identifier)

	if err := conn.Bind(bindName, secret); err != nil {
		return classifyBindError(err)
	}

	entry, err := d.searchUserEntry(conn, identifier)
	if err != nil {
		return DirectoryNotFound, err
	}

	if entry == nil {
		return DirectoryNotFound, nil
	}

	return evaluateEntry(entry, d.config.RequiredGroup), nil
}

// searchUserEntry returns the first entry matching the user filter or nil.
func (d *LDAPDirectory) searchUserEntry(conn *ldap.Conn, identifier string) (*ldap.Entry, error) {
	userFilter := strings.ReplaceAll(d.config.UserFilter, "{username}", ldap.EscapeFilter(identifier))
	searchRequest := ldap.NewSearchRequest(
		d.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, // Size limit
		int(d.timeout.Seconds()),
		false,
		userFilter,
		[]string{attrUserAccountControl, attrMemberOf},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	if searchResult == nil || len(searchResult.Entries) == 0 {
		return nil, nil
	}

	return searchResult.Entries[0], nil
}

// classifyBindError turns a failed user bind into a verdict. Transport
// failures are errors, anything the server answered is a credential refusal.
func classifyBindError(err error) (DirectoryStatus, error) {
	var ldapErr *ldap.Error
	if !errors.As(err, &ldapErr) {
		return DirectoryNotFound, fmt.Errorf("failed to bind: %w", err)
	}

	switch ldapErr.ResultCode {
	case ldap.ErrorNetwork, ldap.LDAPResultUnavailable, ldap.LDAPResultBusy:
		return DirectoryNotFound, fmt.Errorf("failed to bind: %w", err)
	default:
		return DirectoryInvalidCredentials, nil
	}
}

// evaluateEntry checks the disabled flag and the group membership of a user entry.
func evaluateEntry(entry *ldap.Entry, requiredGroup string) DirectoryStatus {
	if uac := entry.GetAttributeValue(attrUserAccountControl); uac != "" {
		flags, err := strconv.ParseInt(uac, 10, 64)
		if err == nil && flags&uacAccountDisable != 0 {
			return DirectoryDisabledAccount
		}
	}

	if requiredGroup == "" {
		return DirectoryOK
	}

	needle := strings.ToLower("CN=" + requiredGroup)

	for _, group := range entry.GetAttributeValues(attrMemberOf) {
		if strings.Contains(strings.ToLower(group), needle) {
			return DirectoryOK
		}
	}

	return DirectoryNotAMember
}

func closeConn(conn *ldap.Conn) {
	if errClose := conn.Close(); errClose != nil {
		log.Warn().Err(errClose).Msg("failed to close LDAP connection")
	}
}
