package auth

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "softdesk"
	tokenTTL    = 24 * time.Hour
)

var jwtSecret []byte

func InitJWTSecret() error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	jwtSecret = []byte(secret)
	return nil
}

// GenerateJWT issues a signed access token for the given account. The user id
// travels in the "uid" claim; handlers never trust the email claim for
// identity, it is informational only.
func GenerateJWT(userID uint, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"uid":   userID,
		"email": email,
		"iss":   tokenIssuer,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// VerifyJWT parses and validates a token, returning the user id from the
// "uid" claim. Expiry and issuer are checked by the parser.
func VerifyJWT(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())

	if err != nil || !token.Valid {
		return 0, fmt.Errorf("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return 0, fmt.Errorf("Invalid token claims")
	}

	uid, ok := claims["uid"].(float64)

	if !ok {
		return 0, fmt.Errorf("Invalid user ID in token claims")
	}

	return uint(uid), nil
}
