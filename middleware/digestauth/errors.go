package digestauth

import "errors"

var (
	// ErrMalformedCredentials indica uma linha inválida no arquivo de credenciais.
	ErrMalformedCredentials = errors.New("malformed credentials entry")
	// ErrMalformedDigest indica um header Authorization Digest que não pôde ser lido.
	ErrMalformedDigest = errors.New("malformed digest header")
)
