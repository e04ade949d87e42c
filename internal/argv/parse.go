package argv

import (
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Parse applies every token in args, in order. args must not include the program name.
// Commands and the record of cleared settings are reset first, so "+=" only extends
// values assigned earlier in the same call or values that were non-empty before it.
// In lax mode unknown settings are dropped silently and deprecation warnings are skipped.
func (s *Store) Parse(args []string, lax bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.commands = nil
	clear(s.cleared)
	for _, arg := range args {
		if err := s.parseOne(arg, "", lax); err != nil {
			return err
		}
	}
	return nil
}

// PreParse applies only the tokens starting with "--"+name. It is used to pick up a
// single setting, such as the config file location, before the full parse.
func (s *Store) PreParse(args []string, name string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--"+name) {
			continue
		}
		if err := s.parseOne(arg, "", false); err != nil {
			return err
		}
	}
	return nil
}

// parseOne applies a single token. With only set, assignments to any other setting
// are skipped.
func (s *Store) parseOne(arg, only string, lax bool) error {
	var name, value string
	incremental := false

	eq := strings.IndexByte(arg, '=')
	switch {
	case strings.HasPrefix(arg, "--") && eq >= 3 && arg[eq-1] == '+':
		// --name+=value
		name, value = arg[2:eq-1], arg[eq+1:]
		incremental = true
	case strings.HasPrefix(arg, "--") && eq >= 0:
		// --name=value
		name, value = arg[2:eq], arg[eq+1:]
	case strings.HasPrefix(arg, "--"):
		// --daemon
		name = arg[2:]
	case strings.HasPrefix(arg, "-") && len(arg) > 1:
		name = arg[1:]
	default:
		s.commands = append(s.commands, arg)
	}

	name = strings.TrimSpace(name)
	if name == "" || (only != "" && name != only) {
		return nil
	}

	if !lax {
		s.warnIfDeprecated(name)
	}
	value = strings.TrimLeft(value, " \t")

	current, known := s.values[name]
	if !known {
		return s.handleUnknown(name, value, lax)
	}

	if !incremental {
		s.values[name] = value
		s.cleared[name] = struct{}{}
		return nil
	}

	if current == "" {
		if _, ok := s.cleared[name]; !ok {
			return errorf("Incremental setting '%s' without a parent", name)
		}
		s.values[name] = value
		return nil
	}
	s.values[name] = current + ", " + value
	return nil
}

func (s *Store) handleUnknown(name, value string, lax bool) error {
	if slices.Contains(splitIgnoreList(s.values[IgnoreUnknownSettings]), name) {
		s.unknown[name] = value
		s.logger.Warn("Ignoring unknown setting as requested", zap.String("name", name))
		return nil
	}
	if lax {
		return nil
	}
	return errorf("Trying to set unknown setting '%s'", name)
}

func splitIgnoreList(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ' ', ',', '\t', '\n', '\r':
			return true
		}
		return false
	})
}
