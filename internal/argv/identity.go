package argv

import (
	"fmt"
	"os/user"
	"strconv"
)

// IdentityResolver maps user and group names to numeric ids.
type IdentityResolver interface {
	LookupUser(name string) (int, error)
	LookupGroup(name string) (int, error)
}

// osIdentity consults the operating system user and group databases. Lookups may go
// through NSS and are only performed during start-up.
type osIdentity struct{}

func (osIdentity) LookupUser(name string) (int, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, fmt.Errorf("non-numeric uid %q: %w", u.Uid, err)
	}
	return uid, nil
}

func (osIdentity) LookupGroup(name string) (int, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("non-numeric gid %q: %w", g.Gid, err)
	}
	return gid, nil
}
