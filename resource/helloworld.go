package resource

import (
	"io"
	"net/http"
)

// HelloWorld é o handler estático do servidor simples: toda requisição
// recebe a mesma página HTML.
type HelloWorld struct{}

func (HelloWorld) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html;charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "<h1>Hello World</h1>\n")
}
