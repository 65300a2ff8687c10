// Package remote holds one token client per configured peer service.
package remote

import (
	"sort"
	"strings"

	"github.com/jrsteele09/go-service-auth/internal/config"
	autherrors "github.com/jrsteele09/go-service-auth/internal/errors"
	"github.com/jrsteele09/go-service-auth/tokenclient"
	"github.com/pkg/errors"
)

// Registry is built once at startup and is read-only afterwards.
type Registry struct {
	clients map[string]*tokenclient.Client
	names   []string
}

// New creates one token client per target, keyed by lowercase name. A later
// target with the same name replaces an earlier one. The options apply to
// every client.
func New(targets []config.RemoteTarget, options ...tokenclient.ClientOption) *Registry {
	r := &Registry{clients: make(map[string]*tokenclient.Client, len(targets))}
	for _, target := range targets {
		name := strings.ToLower(strings.TrimSpace(target.Name))
		if name == "" {
			continue
		}
		r.clients[name] = tokenclient.New(name, target.URL, target.Username, target.Password, options...)
	}
	for name := range r.clients {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r
}

// Lookup returns the client for name. Names are matched case-insensitively.
func (r *Registry) Lookup(name string) (*tokenclient.Client, error) {
	if c, ok := r.clients[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c, nil
	}
	available := "(none)"
	if len(r.names) > 0 {
		available = strings.Join(r.names, ", ")
	}
	return nil, errors.Wrapf(autherrors.ErrUnknownRemote, "[Registry.Lookup] %q, available: %s", name, available)
}

// Names returns the configured target names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Registry) Len() int {
	return len(r.clients)
}
