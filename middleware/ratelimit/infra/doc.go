// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - WindowStore: contador por janela fixa de 1s por chave, com janitor
//   - ThrottlePool: vagas de espera do modo delay, no total e por cliente
//   - MemoryStatsStore / RedisStatsStore: estatísticas das decisões
package infra
