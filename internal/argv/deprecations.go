package argv

import "go.uber.org/zap"

// deprecations maps a retired setting name to its replacement, or to a short note when
// there is no one-to-one replacement.
var deprecations = map[string]string{
	"stats-api-blacklist":         "stats-api-disabled-list",
	"stats-carbon-blacklist":      "stats-carbon-disabled-list",
	"stats-rec-control-blacklist": "stats-rec-control-disabled-list",
	"stats-snmp-blacklist":        "stats-snmp-disabled-list",
	"edns-subnet-whitelist":       "edns-subnet-allow-list",
	"new-domain-whitelist":        "new-domain-ignore-list",
	"snmp-master-socket":          "snmp-daemon-socket",
	"xpf-allow-from":              "Proxy Protocol",
	"xpf-rr-code":                 "Proxy Protocol",
}

// Deprecated returns what replaces name, or "" if name is not deprecated.
func Deprecated(name string) string {
	return deprecations[name]
}

func (s *Store) warnIfDeprecated(name string) {
	if alternative, ok := deprecations[name]; ok {
		s.logger.Warn("Option is deprecated and will be removed in a future release",
			zap.String("deprecatedName", name),
			zap.String("alternative", alternative),
		)
	}
}
