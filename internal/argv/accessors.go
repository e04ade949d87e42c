package argv

import (
	"io/fs"
	"strings"
)

// IsSet reports whether name has a value, empty or not.
func (s *Store) IsSet(name string) bool {
	_, ok := s.values[name]
	return ok
}

// IsEmpty reports whether name is unset or set to "".
func (s *Store) IsEmpty(name string) bool {
	return s.values[name] == ""
}

// Value returns the raw current value of name.
func (s *Store) Value(name string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return "", undefined(name)
	}
	return v, nil
}

// Enabled reports whether name is switched on: anything but exactly "no" or "off",
// including the empty value, counts as on.
func (s *Store) Enabled(name string) (bool, error) {
	v, err := s.Value(name)
	if err != nil {
		return false, err
	}
	return v != "no" && v != "off", nil
}

// Contains reports whether token is one of the comma, space or tab separated items of name.
func (s *Store) Contains(name, token string) bool {
	v := s.values[name]
	if v == "" {
		return false
	}
	for _, part := range strings.FieldsFunc(v, isListSeparator) {
		if part == token {
			return true
		}
	}
	return false
}

// AsNum parses name as an integer with C prefix rules (0x for hex, leading 0 for octal).
// Trailing garbage is ignored; a value without any leading digits is an error. An empty
// value yields def.
func (s *Store) AsNum(name string, def int) (int, error) {
	v, err := s.Value(name)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return def, nil
	}
	n, ok := parseCInt(v, 0)
	if !ok {
		return 0, errorf("'%s' value '%s' is not a valid number", name, v)
	}
	return int(n), nil
}

// AsDouble parses name as a floating point number. An empty value yields 0.
func (s *Store) AsDouble(name string) (float64, error) {
	v, err := s.Value(name)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	f, ok := parseCFloat(v)
	if !ok {
		return 0, errorf("'%s' is not valid double", name)
	}
	return f, nil
}

// AsMode parses name as an octal permission mode such as "0640" or "4755".
func (s *Store) AsMode(name string) (fs.FileMode, error) {
	v, err := s.Value(name)
	if err != nil {
		return 0, err
	}
	n, ok := parseCInt(v, 8)
	if !ok {
		return 0, errorf("'%s' contains invalid octal mode", name)
	}
	return unixMode(uint32(n)), nil
}

// AsUID parses name as a numeric user id, falling back to a user name lookup.
func (s *Store) AsUID(name string) (int, error) {
	v, err := s.Value(name)
	if err != nil {
		return 0, err
	}
	if n, ok := parseCInt(v, 0); ok {
		return int(n), nil
	}
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	uid, err := s.identity.LookupUser(v)
	if err != nil {
		return 0, wrapf(err, "'%s' contains invalid user", name)
	}
	return uid, nil
}

// AsGID parses name as a numeric group id, falling back to a group name lookup.
func (s *Store) AsGID(name string) (int, error) {
	v, err := s.Value(name)
	if err != nil {
		return 0, err
	}
	if n, ok := parseCInt(v, 0); ok {
		return int(n), nil
	}
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	gid, err := s.identity.LookupGroup(v)
	if err != nil {
		return 0, wrapf(err, "'%s' contains invalid group", name)
	}
	return gid, nil
}

func isListSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\t'
}

// unixMode converts traditional permission bits, including setuid, setgid and sticky,
// into an fs.FileMode.
func unixMode(bits uint32) fs.FileMode {
	mode := fs.FileMode(bits & 0o777)
	if bits&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if bits&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if bits&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}
