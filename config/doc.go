// Package config carrega a configuração do gateway com viper.
//
// Precedência (maior para menor): flags > variáveis de ambiente (GATEWAY_*) >
// arquivo de configuração > defaults. O resultado é validado com
// go-playground/validator; qualquer erro aborta a inicialização.
//
// Exemplo de variáveis:
//
//	GATEWAY_SERVER_PORT=8080
//	GATEWAY_RATELIMIT_MAX_REQUESTS_PER_SEC=1
//	GATEWAY_RATELIMIT_DELAY_MS=-1
//	GATEWAY_AUTH_DIGEST_ENABLED=true
//	GATEWAY_AUTH_CREDENTIALS_FILE=myrealm.properties
package config
