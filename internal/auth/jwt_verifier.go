package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"promptvault/internal/domain"
	"promptvault/internal/domain/models"
)

// allowedAlgorithms prevents algorithm confusion attacks
var allowedAlgorithms = []string{"RS256", "ES256"}

// SupabaseJWTVerifier implements JWTVerifier using JWKS from Supabase.
type SupabaseJWTVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from a JWKS endpoint.
// The keys are cached and refreshed in the background until Close is called.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	v := newVerifier(jwks.Keyfunc, logger)
	v.cancel = cancel
	return v, nil
}

func newVerifier(kf jwt.Keyfunc, logger *slog.Logger) *SupabaseJWTVerifier {
	return &SupabaseJWTVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(jwt.WithValidMethods(allowedAlgorithms), jwt.WithExpirationRequired()),
		cancel:  func() {},
		logger:  logger,
	}
}

// VerifyToken validates a JWT token and extracts Supabase claims.
func (v *SupabaseJWTVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	claims := &models.SupabaseClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyfunc)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token is invalid", domain.ErrUnauthorized)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token missing subject", domain.ErrUnauthorized)
	}

	// Reject anonymous tokens
	if claims.Role != models.AuthenticatedRole || claims.IsAnonymous {
		v.logger.Debug("token has non-authenticated role",
			"role", claims.Role,
			"user_id", claims.Subject,
		)
		return nil, fmt.Errorf("%w: role %q is not allowed", domain.ErrUnauthorized, claims.Role)
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *SupabaseJWTVerifier) Close() error {
	v.cancel()
	v.logger.Info("JWT verifier closed")
	return nil
}
