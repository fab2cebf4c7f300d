// Package digestauth implementa o Auth Gate do gateway: autenticação HTTP Digest
// (RFC 2617, algorithm=MD5, qop=auth) contra um arquivo de credenciais e
// checagem de papéis (roles) por rota.
//
// O arquivo de credenciais tem uma linha por usuário:
//
//	username: passwordHash,role[,role...]
//
// onde passwordHash é a senha em claro ou "MD5:<hex>" com o HA1
// (MD5(username:realm:password)), o mesmo formato do htdigest.
package digestauth
