package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"rest-gateway/middleware/ratelimit/domain"
)

// Subject é o que o limiter precisa saber de uma requisição.
type Subject struct {
	RemoteIP   string
	RemotePort int
	Header     http.Header
	Method     string
	Path       string
}

type KeyFunc func(s Subject) domain.Key

// DefaultKeyFunc deriva a identidade do cliente: o IP remoto, ou IP:porta
// quando trackPort=true.
func DefaultKeyFunc(trackPort, trustXFF bool) KeyFunc {
	return func(s Subject) domain.Key {
		if trustXFF && s.Header != nil {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := s.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return domain.Key(ip)
				}
			}
		}

		ip := strings.TrimSpace(s.RemoteIP)
		if ip == "" {
			ip = "unknown"
		}
		if trackPort {
			return domain.Key(net.JoinHostPort(ip, strconv.Itoa(s.RemotePort)))
		}
		return domain.Key(ip)
	}
}
