package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

const (
	ENV  = "GOOGLE_CREDENTIALS"
	FILE = "credentials.json"
)

var ErrNoCredentials = errors.New("no usable credentials")
var ErrInvalidCredentials = errors.New("invalid credentials")

// Sources lists the places a service account document is looked up, in priority order.
type Sources struct {
	Env  string
	File string
}

type Source string

const (
	SourceEnvironment Source = "environment"
	SourceFile        Source = "file"
)

// Credentials is the service account authorisation held for the lifetime of the process.
type Credentials struct {
	Source Source
	Origin string
	Email  string

	config *jwt.Config
}

func DefaultSources() Sources {
	return Sources{
		Env:  ENV,
		File: FILE,
	}
}

// Resolve builds service account credentials from the environment variable or, failing that, the
// credentials file. A source that exists but cannot be parsed is an error and is never skipped.
// Resolve does not make any network calls.
func Resolve(sources Sources, scopes ...string) (*Credentials, error) {
	if sources.Env != "" {
		if v, ok := os.LookupEnv(sources.Env); ok && strings.TrimSpace(v) != "" {
			return parse([]byte(v), SourceEnvironment, sources.Env, scopes)
		}
	}

	if sources.File != "" {
		if info, err := os.Stat(sources.File); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s (%v)", ErrInvalidCredentials, sources.File, err)
			}
		} else if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidCredentials, sources.File)
		} else if b, err := os.ReadFile(sources.File); err != nil {
			return nil, fmt.Errorf("%w: %s (%v)", ErrInvalidCredentials, sources.File, err)
		} else {
			return parse(b, SourceFile, sources.File, scopes)
		}
	}

	return nil, fmt.Errorf("%w (checked environment variable '%s' and file '%s')", ErrNoCredentials, sources.Env, sources.File)
}

func parse(b []byte, source Source, origin string, scopes []string) (*Credentials, error) {
	config, err := google.JWTConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v '%s' (%v)", ErrInvalidCredentials, source, origin, err)
	}

	if strings.TrimSpace(config.Email) == "" {
		return nil, fmt.Errorf("%w: %v '%s' (missing client_email)", ErrInvalidCredentials, source, origin)
	}

	if len(config.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: %v '%s' (missing private_key)", ErrInvalidCredentials, source, origin)
	}

	return &Credentials{
		Source: source,
		Origin: origin,
		Email:  config.Email,
		config: config,
	}, nil
}

// Client returns an HTTP client that authorises requests with tokens minted from the service
// account key.
func (c *Credentials) Client(ctx context.Context) *http.Client {
	return c.config.Client(ctx)
}

func (c *Credentials) Scopes() []string {
	return c.config.Scopes
}

func (c *Credentials) String() string {
	return fmt.Sprintf("%v '%s' (%s)", c.Source, c.Origin, c.Email)
}
