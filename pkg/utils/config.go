package utils

import (
	"os"
	"strings"
	"time"

	"comichub/pkg/models"
)

// SourceConfig decides default merge priority. It is passed explicitly into
// the merge engine; nothing reads it as a global.
type SourceConfig struct {
	PrimarySource  models.Source
	SourcePriority []models.Source
}

func LoadSourceConfig() SourceConfig {
	cfg := SourceConfig{
		PrimarySource:  models.SourceComicVine,
		SourcePriority: append([]models.Source(nil), models.AllSources...),
	}

	if raw := os.Getenv("COMICHUB_SOURCE_PRIORITY"); raw != "" {
		var order []models.Source
		for _, part := range strings.Split(raw, ",") {
			src := models.Source(strings.ToLower(strings.TrimSpace(part)))
			if models.KnownSource(src) {
				order = append(order, src)
			}
		}
		if len(order) > 0 {
			cfg.SourcePriority = order
			cfg.PrimarySource = order[0]
		}
	}

	if raw := os.Getenv("COMICHUB_PRIMARY_SOURCE"); raw != "" {
		src := models.Source(strings.ToLower(strings.TrimSpace(raw)))
		if models.KnownSource(src) {
			cfg.PrimarySource = src
		}
	}

	return cfg
}

type ServerConfig struct {
	HTTPAddr string
	TCPAddr  string
}

func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{HTTPAddr: ":8080", TCPAddr: ":7070"}
	if v := os.Getenv("COMICHUB_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("COMICHUB_TCP_ADDR"); v != "" {
		cfg.TCPAddr = v
	}
	return cfg
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("COMICHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("COMICHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "comichub"
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: 24 * time.Hour,
	}
}
