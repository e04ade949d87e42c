package argv

import (
	"slices"
	"time"

	"go.uber.org/zap"
)

// Settings consumed by the store itself.
const (
	// IgnoreUnknownSettings lists setting names that may appear in input without being registered.
	IgnoreUnknownSettings = "ignore-unknown-settings"
	// IncludeDir names a directory whose *.conf files are parsed after the main config file.
	IncludeDir = "include-dir"
)

// Kind tags a registered setting. It only affects rendering.
type Kind int

const (
	// KindNone marks settings registered without help text.
	KindNone Kind = iota
	KindParameter
	KindSwitch
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindParameter:
		return "Parameter"
	case KindSwitch:
		return "Switch"
	case KindCommand:
		return "Command"
	default:
		return ""
	}
}

// Store holds the current value, default, help text and kind of every known setting.
// It is not safe for concurrent use.
type Store struct {
	values   map[string]string
	defaults map[string]string
	help     map[string]string
	kinds    map[string]Kind

	// scoped to one Parse invocation
	cleared  map[string]struct{}
	commands []string

	unknown map[string]string

	sealed bool

	logger   *zap.Logger
	clock    func() time.Time
	identity IdentityResolver
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the sink for warnings and errors emitted while parsing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used in rendered preambles, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithIdentityResolver overrides the user and group database used by AsUID and AsGID.
func WithIdentityResolver(r IdentityResolver) Option {
	return func(s *Store) {
		s.identity = r
	}
}

// New returns a store with ignore-unknown-settings registered and empty.
func New(opts ...Option) *Store {
	s := &Store{
		values:   make(map[string]string),
		defaults: make(map[string]string),
		help:     make(map[string]string),
		kinds:    make(map[string]Kind),
		cleared:  make(map[string]struct{}),
		unknown:  make(map[string]string),
		logger:   zap.NewNop(),
		clock:    time.Now,
		identity: osIdentity{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.SetHelp(IgnoreUnknownSettings, "Configuration settings to ignore if they are unknown").Assign("")
	return s
}

// Handle refers to a registered setting.
type Handle struct {
	store *Store
	name  string
}

// Name returns the setting name.
func (h Handle) Name() string {
	return h.name
}

// Value returns the current value.
func (h Handle) Value() string {
	return h.store.values[h.name]
}

// Assign replaces the current value.
func (h Handle) Assign(value string) Handle {
	h.store.mustBeOpen("Assign")
	h.store.values[h.name] = value
	return h
}

// Set registers name without help text, keeping the current value if it is already set.
func (s *Store) Set(name string) Handle {
	s.mustBeOpen("Set")
	if _, ok := s.values[name]; !ok {
		s.values[name] = ""
	}
	return Handle{store: s, name: name}
}

// SetHelp registers a parameter with its help text.
func (s *Store) SetHelp(name, help string) Handle {
	s.mustBeOpen("SetHelp")
	s.help[name] = help
	s.kinds[name] = KindParameter
	return s.Set(name)
}

// SetSwitch registers a boolean-like switch.
func (s *Store) SetSwitch(name, help string) Handle {
	s.mustBeOpen("SetSwitch")
	s.help[name] = help
	s.kinds[name] = KindSwitch
	return s.Set(name)
}

// SetCmd registers a zero-argument command. Its value is forced to "no" until the
// command is given on the command line.
func (s *Store) SetCmd(name, help string) {
	s.mustBeOpen("SetCmd")
	s.help[name] = help
	s.kinds[name] = KindCommand
	s.Set(name).Assign("no")
}

// SetDefault records the default for name unless one is already recorded.
func (s *Store) SetDefault(name, value string) {
	s.mustBeOpen("SetDefault")
	if _, ok := s.defaults[name]; !ok {
		s.defaults[name] = value
	}
}

// SetDefaults snapshots every current value lacking a default as that default.
func (s *Store) SetDefaults() {
	s.mustBeOpen("SetDefaults")
	for name, value := range s.values {
		if _, ok := s.defaults[name]; !ok {
			s.defaults[name] = value
		}
	}
}

// Default returns the recorded default for name.
func (s *Store) Default(name string) (string, bool) {
	v, ok := s.defaults[name]
	return v, ok
}

// Help returns the help text and kind recorded for name.
func (s *Store) Help(name string) (string, Kind, bool) {
	h, ok := s.help[name]
	return h, s.kinds[name], ok
}

// List returns the names of all set settings in lexical order.
func (s *Store) List() []string {
	return sortedKeys(s.values)
}

// Commands returns the non-flag tokens collected by the last Parse, in argument order.
func (s *Store) Commands() []string {
	return slices.Clone(s.commands)
}

// Unknown returns the unknown settings that were accepted because of ignore-unknown-settings.
func (s *Store) Unknown() map[string]string {
	out := make(map[string]string, len(s.unknown))
	for k, v := range s.unknown {
		out[k] = v
	}
	return out
}

// Seal ends the start-up phase. Parsing, file inclusion and identity lookups fail from
// now on and registrations panic; read accessors keep working.
func (s *Store) Seal() {
	s.sealed = true
}

// Sealed reports whether Seal was called.
func (s *Store) Sealed() bool {
	return s.sealed
}

func (s *Store) mustBeOpen(op string) {
	if s.sealed {
		panic("argv: " + op + " called on a sealed configuration store")
	}
}

func (s *Store) checkOpen() error {
	if s.sealed {
		return &Error{Msg: "start-up operation rejected", Err: ErrSealed}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
