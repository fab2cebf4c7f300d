package digestauth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Status é o resultado de Authorize.
type Status int

const (
	Unauthenticated Status = iota
	Authorized
	Forbidden
)

func (s Status) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unauthenticated"
	}
}

// Result de uma autorização. Challenge só é preenchido quando Unauthenticated.
type Result struct {
	Status    Status
	Identity  string
	Challenge string
}

// Credentials é o que o gate lê da requisição.
type Credentials struct {
	Method        string
	URI           string
	Authorization string
}

type Options struct {
	Realm       string
	Users       *UserStore
	NonceMaxAge time.Duration
	// MaxNonces limita os nonces guardados (padrão DefaultMaxNonces).
	MaxNonces int
	Now       func() time.Time
	Logger    *slog.Logger
}

// Gate aplica Digest + papéis. Seguro para uso concorrente.
type Gate struct {
	realm  string
	users  *UserStore
	nonces *NonceStore
	logger *slog.Logger
}

func NewGate(opts Options) (*Gate, error) {
	if strings.TrimSpace(opts.Realm) == "" {
		return nil, errors.New("digestauth: realm is required")
	}
	if opts.Users == nil {
		return nil, errors.New("digestauth: user store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Gate{
		realm:  opts.Realm,
		users:  opts.Users,
		nonces: NewNonceStore(opts.NonceMaxAge, opts.Now, opts.MaxNonces),
		logger: opts.Logger,
	}, nil
}

func (g *Gate) Realm() string { return g.realm }

// Challenge emite um nonce novo e devolve o valor do WWW-Authenticate.
func (g *Gate) Challenge(stale bool) string {
	return Challenge{Realm: g.realm, Nonce: g.nonces.Issue(), Stale: stale}.String()
}

// Authorize verifica as credenciais contra requiredRoles.
// Sem requiredRoles a rota é pública e nada é verificado.
func (g *Gate) Authorize(c Credentials, requiredRoles []string) Result {
	if len(requiredRoles) == 0 {
		return Result{Status: Authorized}
	}

	user, stale, err := g.authenticate(c)
	if err != nil {
		g.logger.Debug("digest authentication failed", "uri", c.URI, "err", err)
		return Result{Status: Unauthenticated, Challenge: g.Challenge(stale)}
	}

	if !user.HasAnyRole(requiredRoles) {
		return Result{Status: Forbidden, Identity: user.Name}
	}
	return Result{Status: Authorized, Identity: user.Name}
}

var (
	errNoCredentials = errors.New("no credentials")
	errBadDigest     = errors.New("digest mismatch")
	errStaleNonce    = errors.New("stale nonce")
)

func (g *Gate) authenticate(c Credentials) (User, bool, error) {
	if strings.TrimSpace(c.Authorization) == "" {
		return User{}, false, errNoCredentials
	}
	p, err := parseParams(c.Authorization)
	if err != nil {
		return User{}, false, err
	}

	switch {
	case p["username"] == "", p["nonce"] == "", p["response"] == "":
		return User{}, false, ErrMalformedDigest
	case p["realm"] != g.realm:
		return User{}, false, errors.New("realm mismatch")
	case p["uri"] != c.URI:
		return User{}, false, errors.New("uri mismatch")
	case p["algorithm"] != "" && !strings.EqualFold(p["algorithm"], "MD5"):
		return User{}, false, errors.New("unsupported algorithm")
	case p["qop"] != "" && p["qop"] != "auth":
		return User{}, false, errors.New("unsupported qop")
	}

	nc, err := p.nc()
	if err != nil {
		return User{}, false, err
	}
	if p["qop"] == "auth" && (nc == 0 || p["cnonce"] == "") {
		return User{}, false, ErrMalformedDigest
	}

	user, ok := g.users.Lookup(p["username"])
	if !ok {
		return User{}, false, errors.New("unknown user")
	}

	want := ComputeResponse(user.HA1(g.realm), c.Method, p["uri"], p["nonce"], p["nc"], p["cnonce"], p["qop"])
	if !equalDigest(want, p["response"]) {
		return User{}, false, errBadDigest
	}

	switch g.nonces.use(p["nonce"], nc) {
	case nonceValid:
		return user, false, nil
	case nonceStale:
		return User{}, true, errStaleNonce
	case nonceReplayed:
		return User{}, false, errors.New("nonce count replayed")
	default:
		return User{}, false, errors.New("unknown nonce")
	}
}

// StartJanitor limpa nonces expirados até o ctx encerrar.
func (g *Gate) StartJanitor(ctx context.Context) {
	g.nonces.StartJanitor(ctx)
}
