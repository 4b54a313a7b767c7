package provision

import (
	"fmt"
	"strings"

	"github.com/tjfontaine/hackpack/internal/gitconfig"
)

const herokuHostFormat = "http://%s.herokuapp.com"

// ResolveHost derives the public host of the deployed web application from the
// Heroku remote recorded in the git config at path.
func ResolveHost(path string) (string, error) {
	cfg, err := gitconfig.Load(path)
	if err != nil {
		return "", newError(KindHostUnresolvable, err,
			"could not read git config at %s; is this a git repository", path)
	}

	app, ok := cfg.HerokuApp()
	if !ok {
		return "", newError(KindHostUnresolvable, nil,
			"no Heroku remote found in %s; create the Heroku app or pass --domain", path)
	}
	return fmt.Sprintf(herokuHostFormat, app), nil
}

// normalizeHost adds a scheme to a bare domain and drops any trailing slash.
func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

// callbackURL joins host and path unless path is already absolute.
func callbackURL(host, path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return host + path
}
