package gateway

import (
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// Request é a visão imutável de uma requisição recebida.
// Não deve ser modificada depois de NewRequest.
type Request struct {
	ID         string
	Method     string
	Path       string
	RequestURI string
	RemoteIP   string
	RemotePort int
	Header     http.Header
	// Credentials é o valor bruto do header Authorization (pode ser vazio).
	Credentials string
}

func NewRequest(r *http.Request) *Request {
	ip, port := splitRemoteAddr(r.RemoteAddr)

	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	return &Request{
		ID:          uuid.NewString(),
		Method:      r.Method,
		Path:        path,
		RequestURI:  uri,
		RemoteIP:    ip,
		RemotePort:  port,
		Header:      r.Header.Clone(),
		Credentials: r.Header.Get("Authorization"),
	}
}

func splitRemoteAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}
