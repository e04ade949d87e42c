package argv

import (
	"slices"
	"time"
)

// Setting is the complete record of one setting as captured by a Snapshot.
type Setting struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Default    string `json:"default"`
	HasDefault bool   `json:"hasDefault"`
	Help       string `json:"help,omitempty"`
	Kind       Kind   `json:"kind"`
	Changed    bool   `json:"changed"`
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Snapshot is an immutable copy of a Store, safe for concurrent use.
type Snapshot struct {
	takenAt     time.Time
	names       []string
	settings    map[string]Setting
	commands    []string
	unknown     map[string]string
	changes     []Change
	running     string
	runningFull string
}

// Snapshot copies the current state of the store and renders its running configuration.
// It fails when a documented setting has no default.
func (s *Store) Snapshot() (*Snapshot, error) {
	running, err := s.ConfigString(true, false)
	if err != nil {
		return nil, err
	}
	runningFull, err := s.ConfigString(true, true)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		takenAt:     s.clock(),
		names:       s.List(),
		settings:    make(map[string]Setting, len(s.values)),
		commands:    s.Commands(),
		unknown:     s.Unknown(),
		changes:     s.Diff(),
		running:     running,
		runningFull: runningFull,
	}
	for name, value := range s.values {
		def, hasDefault := s.defaults[name]
		snap.settings[name] = Setting{
			Name:       name,
			Value:      value,
			Default:    def,
			HasDefault: hasDefault,
			Help:       s.help[name],
			Kind:       s.kinds[name],
			Changed:    hasDefault && def != value,
		}
	}
	return snap, nil
}

// TakenAt returns when the snapshot was created.
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Value returns the value of name and whether it was set.
func (s *Snapshot) Value(name string) (string, bool) {
	setting, ok := s.settings[name]
	return setting.Value, ok
}

// Setting returns the full record of name.
func (s *Snapshot) Setting(name string) (Setting, bool) {
	setting, ok := s.settings[name]
	return setting, ok
}

// Settings returns every setting ordered by name.
func (s *Snapshot) Settings() []Setting {
	out := make([]Setting, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.settings[name])
	}
	return out
}

// List returns the setting names in lexical order.
func (s *Snapshot) List() []string {
	return slices.Clone(s.names)
}

// Diff returns the settings that differ from their defaults.
func (s *Snapshot) Diff() []Change {
	return slices.Clone(s.changes)
}

// Commands returns the commands collected by the last Parse.
func (s *Snapshot) Commands() []string {
	return slices.Clone(s.commands)
}

// Unknown returns the ignored unknown settings.
func (s *Snapshot) Unknown() map[string]string {
	out := make(map[string]string, len(s.unknown))
	for k, v := range s.unknown {
		out[k] = v
	}
	return out
}

// Config returns the running configuration as rendered when the snapshot was taken.
func (s *Snapshot) Config(full bool) string {
	if full {
		return s.runningFull
	}
	return s.running
}
