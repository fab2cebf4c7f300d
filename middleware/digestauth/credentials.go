package digestauth

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

const md5Prefix = "MD5:"

// User é uma entrada do arquivo de credenciais.
type User struct {
	Name       string
	Credential string
	Roles      []string
}

// NewUser cria um usuário com senha em claro.
func NewUser(name, password string, roles ...string) User {
	return User{Name: name, Credential: password, Roles: roles}
}

// HA1 devolve MD5(username:realm:password) em hex. Se a credencial já
// estiver no formato "MD5:<hex>", devolve o hex armazenado.
func (u User) HA1(realm string) string {
	if len(u.Credential) > len(md5Prefix) && strings.EqualFold(u.Credential[:len(md5Prefix)], md5Prefix) {
		return strings.ToLower(u.Credential[len(md5Prefix):])
	}
	return HA1(u.Name, realm, u.Credential)
}

// HasAnyRole diz se o usuário tem ao menos um dos papéis pedidos.
func (u User) HasAnyRole(required []string) bool {
	for _, r := range required {
		if slices.Contains(u.Roles, r) {
			return true
		}
	}
	return false
}

// HA1 calcula MD5(username:realm:password) em hex.
func HA1(username, realm, password string) string {
	return md5Hex(username + ":" + realm + ":" + password)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// UserStore é o conjunto de usuários carregado na inicialização.
// Somente leitura depois de criado.
type UserStore struct {
	users map[string]User
}

func NewUserStore(users ...User) *UserStore {
	s := &UserStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		s.users[u.Name] = u
	}
	return s
}

func (s *UserStore) Lookup(name string) (User, bool) {
	if s == nil {
		return User{}, false
	}
	u, ok := s.users[name]
	return u, ok
}

func (s *UserStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.users)
}

// LoadFile lê o arquivo de credenciais em path.
func LoadFile(path string) (*UserStore, error) {
	f, err := os.Open(path) //nolint:gosec // path vem da configuração
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer func() { _ = f.Close() }()

	store, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Parse lê entradas "username: passwordHash,role[,role...]".
// Linhas vazias e comentários (# ou !) são ignorados.
func Parse(r io.Reader) (*UserStore, error) {
	store := NewUserStore()

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		u, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		store.users[u.Name] = u
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return store, nil
}

func parseLine(line string) (User, error) {
	i := strings.IndexAny(line, ":=")
	if i < 0 {
		return User{}, fmt.Errorf("%w: missing separator", ErrMalformedCredentials)
	}
	name := strings.TrimSpace(line[:i])
	if name == "" {
		return User{}, fmt.Errorf("%w: empty username", ErrMalformedCredentials)
	}

	fields := strings.Split(line[i+1:], ",")
	credential := strings.TrimSpace(fields[0])
	if credential == "" {
		return User{}, fmt.Errorf("%w: empty password for %q", ErrMalformedCredentials, name)
	}

	var roles []string
	for _, f := range fields[1:] {
		if role := strings.TrimSpace(f); role != "" {
			roles = append(roles, role)
		}
	}
	return User{Name: name, Credential: credential, Roles: roles}, nil
}
