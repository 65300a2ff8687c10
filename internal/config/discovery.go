package config

import (
	"sort"
	"strings"
)

// RemoteTarget describes one peer service this process authenticates to.
type RemoteTarget struct {
	Name     string
	URL      string
	Username string
	Password string
}

// DiscoverCredentials builds the accepted credential table from a flat
// KEY=VALUE environment. SERVER_AUTH_USER/SERVER_AUTH_PASS and every
// OAUTH_<NAME>_USER/OAUTH_<NAME>_PASS pair contribute one entry, keyed by the
// user value. Entries with an empty user or password are skipped.
func DiscoverCredentials(environ []string) map[string]string {
	env := toMap(environ)
	credentials := make(map[string]string)

	if user, pass := env[serverUserVar], env[serverPassVar]; user != "" && pass != "" {
		credentials[user] = pass
	}

	for _, key := range sortedKeys(env) {
		if !strings.HasPrefix(key, oauthPrefix) || !strings.HasSuffix(key, "_USER") {
			continue
		}
		prefix := strings.TrimSuffix(key, "_USER")
		user, pass := env[key], env[prefix+"_PASS"]
		if user != "" && pass != "" {
			credentials[user] = pass
		}
	}
	return credentials
}

// DiscoverRemoteTargets finds every REMOTE_<NAME>_URL and pairs it with the
// matching _USER and _PASS. Targets missing any of the three are skipped.
// Names are lowercased; the result is sorted by name.
func DiscoverRemoteTargets(environ []string) []RemoteTarget {
	env := toMap(environ)
	seen := make(map[string]struct{})
	targets := make([]RemoteTarget, 0)

	for _, key := range sortedKeys(env) {
		if !strings.HasPrefix(key, remotePrefix) || !strings.HasSuffix(key, "_URL") {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, remotePrefix), "_URL")
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		url := env[remotePrefix+name+"_URL"]
		user := env[remotePrefix+name+"_USER"]
		pass := env[remotePrefix+name+"_PASS"]
		if url == "" || user == "" || pass == "" {
			continue
		}
		targets = append(targets, RemoteTarget{
			Name:     strings.ToLower(name),
			URL:      url,
			Username: user,
			Password: pass,
		})
	}
	return targets
}

func toMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}
	return env
}

func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
