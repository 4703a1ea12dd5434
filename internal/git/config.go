package git

import (
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	format "github.com/go-git/go-git/v5/plumbing/format/config"
)

// ConfigValue looks up a git configuration value such as "user.name" or
// "gpg.ssh.program". Like git, the repository config wins over the global
// config, which wins over the system config. Lookup failures in any scope are
// treated as "not set".
func ConfigValue(repo *gogit.Repository, key string) (string, bool) {
	section, subsection, name, ok := splitConfigKey(key)
	if !ok {
		return "", false
	}
	for _, raw := range configScopes(repo) {
		if value, ok := lookupConfig(raw, section, subsection, name); ok {
			return value, true
		}
	}
	return "", false
}

func configScopes(repo *gogit.Repository) []*format.Config {
	var scopes []*format.Config
	if repo != nil {
		if cfg, err := repo.Config(); err == nil && cfg.Raw != nil {
			scopes = append(scopes, cfg.Raw)
		}
	}
	for _, scope := range []config.Scope{config.GlobalScope, config.SystemScope} {
		if cfg, err := config.LoadConfig(scope); err == nil && cfg.Raw != nil {
			scopes = append(scopes, cfg.Raw)
		}
	}
	return scopes
}

func lookupConfig(raw *format.Config, section, subsection, name string) (string, bool) {
	if !raw.HasSection(section) {
		return "", false
	}
	s := raw.Section(section)
	if subsection == "" {
		if s.HasOption(name) {
			return s.Option(name), true
		}
		return "", false
	}
	if !s.HasSubsection(subsection) {
		return "", false
	}
	sub := s.Subsection(subsection)
	if sub.HasOption(name) {
		return sub.Option(name), true
	}
	return "", false
}

// splitConfigKey splits "section[.subsection].name". The subsection may itself
// contain dots (e.g., "url.https://example.com/.insteadOf").
func splitConfigKey(key string) (section, subsection, name string, ok bool) {
	first := strings.Index(key, ".")
	last := strings.LastIndex(key, ".")
	if first <= 0 || last == len(key)-1 {
		return "", "", "", false
	}
	section = key[:first]
	name = key[last+1:]
	if first != last {
		subsection = key[first+1 : last]
	}
	return section, subsection, name, true
}
