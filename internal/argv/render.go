package argv

import (
	"strings"
	"time"
)

const (
	unknownSettingHelp = "unknown setting"
	headerRule         = "#################################\n"
)

// ConfigString renders the store as a config file.
//
// With running unset it produces a template: every setting commented out with its
// default. With running set it reflects current values; unless full is also set, only
// settings that differ from their default are written. ignore-unknown-settings always
// comes first since it changes how the rest of the file is parsed.
func (s *Store) ConfigString(running, full bool) (string, error) {
	var b strings.Builder
	if running {
		b.WriteString("# Autogenerated configuration file based on running instance (" + s.clock().Format(time.DateTime) + ")\n\n")
	} else {
		b.WriteString("# Autogenerated configuration file template\n\n")
	}

	b.WriteString(formatOne(running, full, IgnoreUnknownSettings,
		s.help[IgnoreUnknownSettings], s.defaults[IgnoreUnknownSettings], s.values[IgnoreUnknownSettings]))

	for _, name := range sortedKeys(s.help) {
		if s.kinds[name] == KindCommand || name == IgnoreUnknownSettings {
			continue
		}
		def, ok := s.defaults[name]
		if !ok {
			return "", errorf("Default for setting '%s' not set", name)
		}
		b.WriteString(formatOne(running, full, name, s.help[name], def, s.values[name]))
	}

	if running {
		for _, name := range sortedKeys(s.unknown) {
			b.WriteString(formatOne(running, full, name, unknownSettingHelp, "", s.unknown[name]))
		}
	}
	return b.String(), nil
}

func formatOne(running, full bool, name, help, def, current string) string {
	var b strings.Builder

	if !running || full {
		b.WriteString(headerRule)
		b.WriteString("# " + name + "\t" + help + "\n#\n")
	} else if def == current {
		return ""
	}

	if !running || def == current {
		b.WriteString("# ")
	}

	if running {
		b.WriteString(name + "=" + current + "\n")
		if full {
			b.WriteString("\n")
		}
	} else {
		b.WriteString(name + "=" + def + "\n\n")
	}
	return b.String()
}

// HelpString lists the registered settings whose name starts with prefix, each with its
// help text. The prefix "no" selects everything.
func (s *Store) HelpString(prefix string) string {
	if prefix == "no" {
		prefix = ""
	}

	var b strings.Builder
	for _, name := range sortedKeys(s.help) {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		b.WriteString("  --" + name)
		switch s.kinds[name] {
		case KindParameter:
			b.WriteString("=...")
		case KindSwitch:
			b.WriteString(" | --" + name + "=yes")
			b.WriteString(" | --" + name + "=no")
		}
		b.WriteString("\n\t" + s.help[name] + "\n")
	}
	return b.String()
}

// Change describes a setting whose current value differs from its default.
type Change struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Current string `json:"current"`
}

// Diff returns the documented settings whose current value differs from the default,
// ordered by name. Commands and settings without a default are skipped.
func (s *Store) Diff() []Change {
	var changes []Change
	for _, name := range sortedKeys(s.help) {
		if s.kinds[name] == KindCommand {
			continue
		}
		def, ok := s.defaults[name]
		if !ok || def == s.values[name] {
			continue
		}
		changes = append(changes, Change{Name: name, Default: def, Current: s.values[name]})
	}
	return changes
}
