package namespace

import (
	"fmt"
	"regexp"
	"strconv"
)

// Prefix is prepended to a tenant identifier to form its table name.
const Prefix = "vector_store_"

// tenantPattern keeps derived table names valid unquoted identifiers for
// every supported dialect.
var tenantPattern = regexp.MustCompile(`^[a-z0-9_]{1,48}$`)

// TenantID identifies a customer project. It is used only to derive the
// namespace name.
type TenantID string

// TenantFromInt returns the TenantID for a numeric project identifier.
func TenantFromInt(id int64) TenantID {
	return TenantID(strconv.FormatInt(id, 10))
}

// Validate checks that t can be turned into a table name.
func (t TenantID) Validate() error {
	if !tenantPattern.MatchString(string(t)) {
		return fmt.Errorf("%w: tenant must match %s, got %q", ErrInvalidTenant, tenantPattern, string(t))
	}
	return nil
}

// Namespace returns the table name for t. It does not validate t.
func (t TenantID) Namespace() string {
	return Prefix + string(t)
}

func (t TenantID) String() string { return string(t) }
