// Package gitconfig reads remote definitions from a git config file.
package gitconfig

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	// HerokuSSHMarker identifies a Heroku remote in its SSH form, git@heroku.com:<app>.git.
	HerokuSSHMarker = "git@heroku.com"
	// HerokuHTTPSMarker identifies a Heroku remote in its HTTPS form.
	HerokuHTTPSMarker = "git.heroku.com/"

	remotePrefix = "remote "
)

// Config holds the remotes declared in a git config file, keyed by remote name.
type Config struct {
	Remotes map[string]string
}

// Load parses the git config at path.
func Load(path string) (*Config, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:            true,
		AllowBooleanKeys:        true,
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("load git config %s: %w", path, err)
	}

	cfg := &Config{Remotes: make(map[string]string)}
	for _, section := range f.Sections() {
		name := section.Name()
		if !strings.HasPrefix(name, remotePrefix) {
			continue
		}
		remote := strings.Trim(strings.TrimSpace(strings.TrimPrefix(name, remotePrefix)), `"`)
		if !section.HasKey("url") {
			continue
		}
		cfg.Remotes[remote] = strings.TrimSpace(section.Key("url").String())
	}
	return cfg, nil
}

// RemoteNames returns the remote names in sorted order.
func (c *Config) RemoteNames() []string {
	names := make([]string, 0, len(c.Remotes))
	for name := range c.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HerokuSubdomain extracts the Heroku app name from a remote URL.
func HerokuSubdomain(url string) (string, bool) {
	var sub string
	switch {
	case strings.Contains(url, HerokuSSHMarker):
		_, rest, ok := strings.Cut(url, ":")
		if !ok {
			return "", false
		}
		sub = rest
	case strings.Contains(url, HerokuHTTPSMarker):
		sub = url[strings.Index(url, HerokuHTTPSMarker)+len(HerokuHTTPSMarker):]
	default:
		return "", false
	}

	sub = strings.TrimSuffix(strings.TrimSpace(sub), ".git")
	if sub == "" || strings.ContainsAny(sub, "/:") {
		return "", false
	}
	return sub, true
}

// HerokuApp returns the app name of the first Heroku remote, preferring one named "heroku".
func (c *Config) HerokuApp() (string, bool) {
	if sub, ok := HerokuSubdomain(c.Remotes["heroku"]); ok {
		return sub, true
	}
	for _, name := range c.RemoteNames() {
		if sub, ok := HerokuSubdomain(c.Remotes[name]); ok {
			return sub, true
		}
	}
	return "", false
}
