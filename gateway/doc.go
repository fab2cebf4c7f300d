// Package gateway compõe o pipeline fixo de cada requisição:
//
//	log → rate limit → rota → auth → handler
//
// RouteTable mapeia padrões de caminho para handlers (exato ou com "/*" no fim),
// Dispatcher executa o pipeline e Start/Stop controlam um servidor HTTP
// independente por instância.
package gateway
