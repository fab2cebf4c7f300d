package gateway

import (
	"context"
	"net/http"
)

const defaultContentType = "text/plain; charset=utf-8"

// Handler atende uma rota. Pode devolver nil (200 sem corpo).
type Handler func(ctx context.Context, req *Request) *Response

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Text cria uma resposta text/plain.
func Text(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body)}
}

// HTML cria uma resposta text/html.
func HTML(status int, body string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "text/html;charset=utf-8")
	return &Response{Status: status, Header: h, Body: []byte(body)}
}

func statusResponse(status int) *Response {
	return Text(status, http.StatusText(status)+"\n")
}

// withDefaults completa status (200) e Content-Type quando o handler não definiu.
func withDefaults(r *Response) *Response {
	if r == nil {
		r = &Response{}
	}
	if r.Status == 0 {
		r.Status = http.StatusOK
	}
	if r.Header == nil {
		r.Header = http.Header{}
	}
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", defaultContentType)
	}
	return r
}

func writeResponse(w http.ResponseWriter, r *Response) error {
	h := w.Header()
	for k, vs := range r.Header {
		h[k] = append([]string(nil), vs...)
	}
	w.WriteHeader(r.Status)
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
