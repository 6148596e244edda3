package updater

import (
	"fmt"
	"strings"

	dserrors "github.com/systmms/dbpassrotate/internal/errors"
)

// Vendor identifies one of the supported database kinds
type Vendor int

const (
	Oracle Vendor = iota + 1
	PostgreSQL
	SQLServer
	MySQL
)

type vendorSpec struct {
	tag    string
	driver string
	// template slots, in order: username, new password, old password
	template string
	slots    int
}

// spec returns the tag, driver and template for v
func (v Vendor) spec() (vendorSpec, bool) {
	switch v {
	case Oracle:
		return vendorSpec{tag: "oracle", driver: "godror", template: `alter user %s identified by "%s" replace "%s"`, slots: 3}, true
	case PostgreSQL:
		return vendorSpec{tag: "postgresql", driver: "postgres", template: `alter user %s with password "%s"`, slots: 2}, true
	case SQLServer:
		return vendorSpec{tag: "sqlserver", driver: "sqlserver", template: `alter login %s with password = "%s"`, slots: 2}, true
	case MySQL:
		return vendorSpec{tag: "mysql", driver: "mysql", template: `alter user %s identified by "%s"`, slots: 2}, true
	}
	return vendorSpec{}, false
}

// Vendors lists every supported vendor in a stable order
func Vendors() []Vendor {
	return []Vendor{Oracle, PostgreSQL, SQLServer, MySQL}
}

// ParseVendor maps a vendor tag from a connection URL to a Vendor.
// Matching is case-insensitive.
func ParseVendor(tag string) (Vendor, error) {
	lower := strings.ToLower(tag)
	for _, v := range Vendors() {
		if spec, _ := v.spec(); spec.tag == lower {
			return v, nil
		}
	}
	return 0, dserrors.ConfigError{
		Field:      "vendor",
		Value:      lower,
		Message:    fmt.Sprintf("Unsupported dbms: %s", lower),
		Suggestion: "Supported vendors are oracle, postgresql, sqlserver and mysql",
	}
}

// String returns the lowercase vendor tag
func (v Vendor) String() string {
	if spec, ok := v.spec(); ok {
		return spec.tag
	}
	return fmt.Sprintf("Vendor(%d)", int(v))
}

// Driver returns the database/sql driver name registered for the vendor
func (v Vendor) Driver() string {
	spec, _ := v.spec()
	return spec.driver
}

// Statement renders the password change statement. Values are substituted
// verbatim: a password containing a double quote yields a broken or altered
// statement. Passwords are expected to come from a controlled rotation process.
func (v Vendor) Statement(username, newPassword, oldPassword string) string {
	spec, _ := v.spec()
	args := []interface{}{username, newPassword, oldPassword}
	return fmt.Sprintf(spec.template, args[:spec.slots]...)
}
