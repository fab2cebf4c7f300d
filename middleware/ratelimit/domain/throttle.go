package domain

import "context"

// SlotPool limita quantas requisições excedentes esperam ao mesmo tempo no
// modo delay, no total e, opcionalmente, por chave.
//
// Acquire bloqueia até conseguir uma vaga ou até o ctx encerrar. Quando a
// chave já ocupa todas as vagas permitidas a ela, falha sem esperar.
// Ao adquirir, retorna uma função de release que pode ser chamada mais de uma
// vez; só a primeira libera a vaga.
type SlotPool interface {
	Acquire(ctx context.Context, key Key) (release func(), ok bool)
}
