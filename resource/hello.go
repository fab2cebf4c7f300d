// Package resource contém os handlers de exemplo servidos pelo gateway.
package resource

import (
	"context"
	"net/http"

	"rest-gateway/gateway"
)

const (
	HelloPath = "/hello"
	// RootPattern cobre toda a árvore; com papéis, nenhum caminho escapa do Digest.
	RootPattern = "/*"
)

// Hello responde GET /hello com "Hello Nerd".
func Hello(_ context.Context, req *gateway.Request) *gateway.Response {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		resp := gateway.Text(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)+"\n")
		resp.Header = http.Header{"Allow": []string{"GET, HEAD"}}
		return resp
	}
	return gateway.Text(http.StatusOK, "Hello Nerd")
}

// NotFound é o handler do RootPattern: depois do auth, o que não é recurso é 404.
func NotFound(_ context.Context, _ *gateway.Request) *gateway.Response {
	return gateway.Text(http.StatusNotFound, http.StatusText(http.StatusNotFound)+"\n")
}

// Register registra os recursos na tabela; roles vazio deixa as rotas públicas.
// Com roles, RootPattern também é registrado com os mesmos papéis, então
// qualquer caminho sob "/" exige credenciais antes de responder 404.
func Register(rt *gateway.RouteTable, roles ...string) error {
	if err := rt.Register(HelloPath, Hello, roles...); err != nil {
		return err
	}
	if len(roles) == 0 {
		return nil
	}
	return rt.Register(RootPattern, NotFound, roles...)
}
