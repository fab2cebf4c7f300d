package digestauth

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
)

// params são os pares chave=valor de um header Digest (chaves em minúsculas).
type params map[string]string

// parseParams lê `Digest k=v, k2="v, 2"`. O esquema precisa ser "Digest".
func parseParams(header string) (params, error) {
	scheme, rest, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "Digest") {
		return nil, fmt.Errorf("%w: scheme %q", ErrMalformedDigest, scheme)
	}

	p := params{}
	s := strings.TrimSpace(rest)
	for s != "" {
		eq := strings.IndexByte(s, '=')
		if eq <= 0 {
			return nil, fmt.Errorf("%w: expected key=value", ErrMalformedDigest)
		}
		key := strings.ToLower(strings.TrimSpace(s[:eq]))
		s = strings.TrimSpace(s[eq+1:])

		var val string
		if strings.HasPrefix(s, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(s) && s[i] != '"'; i++ {
				if s[i] == '\\' && i+1 < len(s) {
					i++
				}
				b.WriteByte(s[i])
			}
			if i >= len(s) {
				return nil, fmt.Errorf("%w: unterminated quote for %s", ErrMalformedDigest, key)
			}
			val = b.String()
			s = s[i+1:]
		} else {
			end := strings.IndexByte(s, ',')
			if end < 0 {
				end = len(s)
			}
			val = strings.TrimSpace(s[:end])
			s = s[end:]
		}
		p[key] = val

		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, ",")
		s = strings.TrimSpace(s)
	}
	return p, nil
}

// nc devolve o nonce-count (hex de 8 dígitos) ou 0 se ausente.
func (p params) nc() (uint64, error) {
	v := p["nc"]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 16, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: nc %q", ErrMalformedDigest, v)
	}
	return n, nil
}

// ComputeResponse calcula o request-digest da RFC 2617.
// Com qop vazio usa a forma legada MD5(HA1:nonce:HA2).
func ComputeResponse(ha1, method, uri, nonce, nc, cnonce, qop string) string {
	ha2 := md5Hex(method + ":" + uri)
	if qop == "" {
		return md5Hex(ha1 + ":" + nonce + ":" + ha2)
	}
	return md5Hex(ha1 + ":" + nonce + ":" + nc + ":" + cnonce + ":" + qop + ":" + ha2)
}

func equalDigest(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(a)), []byte(strings.ToLower(b))) == 1
}

// Challenge é o conteúdo de um header WWW-Authenticate Digest.
type Challenge struct {
	Realm string
	Nonce string
	Stale bool
}

func (c Challenge) String() string {
	s := fmt.Sprintf(`Digest realm=%q, nonce=%q, algorithm=MD5, qop="auth"`, c.Realm, c.Nonce)
	if c.Stale {
		s += ", stale=true"
	}
	return s
}

// ParseChallenge lê um header WWW-Authenticate Digest (lado cliente).
func ParseChallenge(header string) (Challenge, error) {
	p, err := parseParams(header)
	if err != nil {
		return Challenge{}, err
	}
	if p["nonce"] == "" {
		return Challenge{}, fmt.Errorf("%w: challenge without nonce", ErrMalformedDigest)
	}
	return Challenge{
		Realm: p["realm"],
		Nonce: p["nonce"],
		Stale: strings.EqualFold(p["stale"], "true"),
	}, nil
}

// Authorization monta o header Authorization (qop=auth) que um cliente
// enviaria em resposta ao desafio.
func (c Challenge) Authorization(username, password, method, uri string, nc uint64, cnonce string) string {
	ncs := fmt.Sprintf("%08x", nc)
	resp := ComputeResponse(HA1(username, c.Realm, password), method, uri, c.Nonce, ncs, cnonce, "auth")
	return fmt.Sprintf(`Digest username=%q, realm=%q, nonce=%q, uri=%q, algorithm=MD5, qop=auth, nc=%s, cnonce=%q, response=%q`,
		username, c.Realm, c.Nonce, uri, ncs, cnonce, resp)
}
