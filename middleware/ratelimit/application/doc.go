// Package application contém os casos de uso do rate limit: contagem por janela,
// rejeição imediata ou espera (modo delay) com vagas limitadas.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key, now) retorna uma Decision (allow/deny/delay + retry-after).
package application
