package updater

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/godror/godror"
	dserrors "github.com/systmms/dbpassrotate/internal/errors"
)

// Scheme is the protocol tag every connection URL starts with
const Scheme = "jdbc"

// Descriptor is a parsed connection URL of the form scheme:vendor:remainder
type Descriptor struct {
	Raw       string
	Vendor    Vendor
	Remainder string
}

// ParseDescriptor validates the shape of a connection URL and resolves its vendor.
func ParseDescriptor(connURL string) (Descriptor, error) {
	parts := strings.Split(connURL, ":")
	if len(parts) < 3 || !strings.EqualFold(parts[0], Scheme) {
		return Descriptor{}, dserrors.ConfigError{
			Message:    fmt.Sprintf("The jdbc url is incorrect: '%s'", connURL),
			Suggestion: "Use the form jdbc:<vendor>:<vendor specific part>",
		}
	}

	vendor, err := ParseVendor(parts[1])
	if err != nil {
		return Descriptor{}, err
	}

	return Descriptor{
		Raw:       connURL,
		Vendor:    vendor,
		Remainder: strings.Join(parts[2:], ":"),
	}, nil
}

// DSN translates the descriptor into the data source name understood by the
// vendor's Go driver, authenticating as username/password.
func (d Descriptor) DSN(username, password string, timeout time.Duration) (string, error) {
	switch d.Vendor {
	case PostgreSQL:
		return d.postgresDSN(username, password, timeout)
	case MySQL:
		return d.mysqlDSN(username, password, timeout)
	case SQLServer:
		return d.sqlServerDSN(username, password, timeout)
	case Oracle:
		return d.oracleDSN(username, password)
	}
	return "", dserrors.ConfigError{
		Field:   "vendor",
		Value:   d.Vendor.String(),
		Message: "no driver mapping for vendor",
	}
}

func (d Descriptor) invalid(reason string) error {
	return dserrors.ConfigError{
		Field:      d.Vendor.String(),
		Message:    fmt.Sprintf("cannot translate '%s': %s", d.Raw, reason),
		Suggestion: "Check the connection url against the vendor's JDBC url format",
	}
}

// postgresDSN handles jdbc:postgresql://host[:port]/database[?params]
func (d Descriptor) postgresDSN(username, password string, timeout time.Duration) (string, error) {
	if !strings.HasPrefix(d.Remainder, "//") {
		return "", d.invalid("expected //host[:port]/database")
	}
	u, err := url.Parse("postgres:" + d.Remainder)
	if err != nil {
		return "", d.invalid(err.Error())
	}
	if u.Host == "" {
		return "", d.invalid("missing host")
	}

	query := u.Query()
	query.Del("user")
	query.Del("password")
	if query.Get("sslmode") == "" {
		switch strings.ToLower(query.Get("ssl")) {
		case "true":
			query.Set("sslmode", "require")
		case "false":
			query.Set("sslmode", "disable")
		}
	}
	query.Del("ssl")
	if query.Get("connect_timeout") == "" && timeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(timeout.Seconds())))
	}

	u.User = url.UserPassword(username, password)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// mysqlDSN handles jdbc:mysql://host[:port][/database][?params]
func (d Descriptor) mysqlDSN(username, password string, timeout time.Duration) (string, error) {
	if !strings.HasPrefix(d.Remainder, "//") {
		return "", d.invalid("expected //host[:port]/database")
	}
	u, err := url.Parse("mysql:" + d.Remainder)
	if err != nil {
		return "", d.invalid(err.Error())
	}
	if u.Hostname() == "" {
		return "", d.invalid("missing host")
	}

	port := u.Port()
	if port == "" {
		port = "3306"
	}

	cfg := mysql.NewConfig()
	cfg.User = username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(u.Hostname(), port)
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.Timeout = timeout
	if strings.EqualFold(u.Query().Get("useSSL"), "true") {
		cfg.TLSConfig = "preferred"
	}
	return cfg.FormatDSN(), nil
}

// sqlServerDSN handles jdbc:sqlserver://host[\instance][:port][;key=value...]
func (d Descriptor) sqlServerDSN(username, password string, timeout time.Duration) (string, error) {
	if !strings.HasPrefix(d.Remainder, "//") {
		return "", d.invalid("expected //host[:port][;property=value]")
	}
	segments := strings.Split(strings.TrimPrefix(d.Remainder, "//"), ";")

	server := segments[0]
	var instance string
	if i := strings.Index(server, `\`); i >= 0 {
		server, instance = server[:i], server[i+1:]
		// host\instance:port
		if j := strings.LastIndex(instance, ":"); j >= 0 {
			server += instance[j:]
			instance = instance[:j]
		}
	}
	if server == "" {
		return "", d.invalid("missing host")
	}

	query := url.Values{}
	for _, segment := range segments[1:] {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "databasename", "database":
			query.Set("database", value)
		case "encrypt":
			query.Set("encrypt", value)
		case "trustservercertificate":
			query.Set("TrustServerCertificate", value)
		case "hostnameincertificate":
			query.Set("hostNameInCertificate", value)
		case "instancename":
			instance = value
		case "portnumber", "port":
			server = net.JoinHostPort(hostOnly(server), value)
		}
	}
	if timeout > 0 {
		query.Set("connection timeout", strconv.Itoa(int(timeout.Seconds())))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(username, password),
		Host:     server,
		RawQuery: query.Encode(),
	}
	if instance != "" {
		u.Path = "/" + instance
	}
	return u.String(), nil
}

func hostOnly(server string) string {
	if host, _, err := net.SplitHostPort(server); err == nil {
		return host
	}
	return server
}

// oracleDSN handles the thin and oci JDBC forms:
//
//	thin:@host:port:SID
//	thin:@//host:port/service and thin:@host:port/service
//	thin:@(DESCRIPTION=...) and oci:@tnsalias
//
// godror honours context deadlines, so the timeout is applied by the caller.
func (d Descriptor) oracleDSN(username, password string) (string, error) {
	at := strings.Index(d.Remainder, "@")
	if at < 0 {
		return "", d.invalid("expected thin:@<connect descriptor>")
	}
	target := d.Remainder[at+1:]
	if target == "" {
		return "", d.invalid("missing connect descriptor")
	}

	connectString := target
	switch {
	case strings.HasPrefix(target, "("):
		// full TNS descriptor
	case strings.HasPrefix(target, "//"):
		connectString = strings.TrimPrefix(target, "//")
	case strings.Count(target, ":") == 2 && !strings.Contains(target, "/"):
		fields := strings.Split(target, ":")
		connectString = fmt.Sprintf(
			"(DESCRIPTION=(ADDRESS=(PROTOCOL=TCP)(HOST=%s)(PORT=%s))(CONNECT_DATA=(SID=%s)))",
			fields[0], fields[1], fields[2])
	}

	var params godror.ConnectionParams
	params.Username = username
	params.Password = godror.NewPassword(password)
	params.ConnectString = connectString
	return params.StringWithPassword(), nil
}
