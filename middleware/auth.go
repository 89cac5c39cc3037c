package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/swiftserve/swiftserve-chat-api/config"
)

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate checks that the token carries a role this system knows about.
func (c CustomClaims) Validate(ctx context.Context) error {
	switch c.Role {
	case "customer", "staff", "driver":
		return nil
	}
	return &AuthError{Code: "INVALID_ROLE", Message: "Token role is not recognized"}
}

// Identity is the verified identity bound to a connection or request.
type Identity struct {
	UserID uint
	Role   string
}

// TokenVerifier performs a stateless HS256 signature check against the
// shared secret. No network or database round-trip.
type TokenVerifier struct {
	jwtValidator *validator.Validator
}

// NewTokenVerifier builds a verifier from the configured shared secret.
func NewTokenVerifier(cfg *config.Config) (*TokenVerifier, error) {
	secret := []byte(cfg.JWTSecret)

	jwtValidator, err := validator.New(
		func(ctx context.Context) (interface{}, error) {
			return secret, nil
		},
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
	)
	if err != nil {
		return nil, err
	}

	return &TokenVerifier{jwtValidator: jwtValidator}, nil
}

// Verify validates the raw token and returns the identity it carries.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, &AuthError{Code: "MISSING_TOKEN", Message: "No credential supplied"}
	}

	claims, err := v.jwtValidator.ValidateToken(ctx, token)
	if err != nil {
		return nil, &AuthError{Code: "INVALID_TOKEN", Message: "Failed to validate JWT"}
	}

	validated := claims.(*validator.ValidatedClaims)
	userID, err := strconv.ParseUint(validated.RegisteredClaims.Subject, 10, 64)
	if err != nil {
		return nil, &AuthError{Code: "INVALID_SUBJECT", Message: "Token subject is not a user ID"}
	}

	custom := validated.CustomClaims.(*CustomClaims)
	return &Identity{UserID: uint(userID), Role: custom.Role}, nil
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	verifier, err := NewTokenVerifier(cfg)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Encountered error while validating JWT: %v", err)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			log.Printf("Failed to write error response: %v", writeErr)
		}
	}

	middleware := jwtmiddleware.New(
		verifier.jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			// Store the validated claims in Gin context
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			// Extract user_id from sub claim
			userID := token.RegisteredClaims.Subject
			c.Set("user_id", userID)
			c.Set("validated_claims", token)

			c.Next()
		}

		// Use the JWT middleware to check the token
		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
	}
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (uint, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	id, err := strconv.ParseUint(userIDStr, 10, 64)
	if err != nil {
		return 0, &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not numeric"}
	}

	return uint(id), nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
