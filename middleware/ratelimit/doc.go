// Package ratelimit monta o limiter por cliente usado pelo dispatcher do gateway.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (contagem por janela, rejeição, modo delay) sem net/http
//   - infra: implementações concretas (janelas em memória, semáforo, estatísticas)
//   - ratelimit (este pacote): wiring, extração de chave e tradução para status/headers
//
// Fluxo no gateway:
//
//  1. Extrai a chave do cliente (IP, IP:porta, XFF)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 (excedeu) ou 503 (sem vaga no modo delay)
//  4. Se permitido, segue para a rota
//
// O padrão é 1 requisição por segundo por IP, rejeitando o excedente.
package ratelimit
