// Package proxy forwards gateway traffic to the registry-resolved
// backends.
package proxy

import (
	"log"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/gateway/internal/registry"
)

// Route maps a public path prefix onto a logical service. The prefix is
// stripped and Rewrite prepended before the request reaches the backend.
type Route struct {
	Prefix  string
	Service string
	Rewrite string
	// Label names the service in the 503 envelope.
	Label string
}

type Proxy struct {
	routes []Route
	// one reverse proxy per route, index-aligned with routes
	proxies []*httputil.ReverseProxy
}

func New(reg *registry.Registry, routes []Route) *Proxy {
	p := &Proxy{routes: routes}
	for _, rt := range routes {
		p.proxies = append(p.proxies, newReverseProxy(reg, rt))
	}
	return p
}

// Register mounts the catch-all under /api. Longest prefix wins, so
// overlapping routes stay unambiguous.
func (p *Proxy) Register(r *gin.Engine) {
	r.Any("/api/*path", p.Handle)
}

func (p *Proxy) Handle(c *gin.Context) {
	best := -1
	for i, rt := range p.routes {
		if !matchesPrefix(c.Request.URL.Path, rt.Prefix) {
			continue
		}
		if best < 0 || len(rt.Prefix) > len(p.routes[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		web.Error(c, http.StatusNotFound, "not found")
		return
	}
	p.proxies[best].ServeHTTP(c.Writer, c.Request)
}

func newReverseProxy(reg *registry.Registry, rt Route) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			target, err := reg.Next(rt.Service)
			if err != nil {
				// unreachable with a well-formed registry; the dial to an
				// empty host then surfaces through ErrorHandler
				log.Printf("[gateway] resolve %s: %v", rt.Service, err)
				return
			}
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.URL.Path = rewritePath(req.URL.Path, rt.Prefix, rt.Rewrite)
			req.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, req *http.Request, err error) {
			// the client never sees the raw transport error
			log.Printf("[gateway] %s %s -> %s: %v", req.Method, req.URL.Path, rt.Service, err)
			unavailable(w, rt.Label)
		},
	}
}

func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func rewritePath(path, prefix, rewrite string) string {
	rest := strings.TrimPrefix(path, prefix)
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	if rest == "/" {
		if rewrite == "" {
			return "/"
		}
		return rewrite
	}
	return rewrite + rest
}

func unavailable(w http.ResponseWriter, label string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":"` + label + ` unavailable"}`))
}
