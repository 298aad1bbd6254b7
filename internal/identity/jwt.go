package identity

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims issued by the identity provider.
type Claims struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	StationID int64  `json:"station_id,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken validates a bearer token and resolves the actor it describes.
func ParseToken(tokenString string, secret []byte) (Actor, error) {
	if tokenString == "" {
		return Actor{}, errors.New("identity: empty token")
	}
	if len(secret) == 0 {
		return Actor{}, errors.New("identity: empty secret")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("identity: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Actor{}, err
	}
	if !token.Valid {
		return Actor{}, errors.New("identity: invalid token")
	}
	role, ok := NormalizeRole(claims.Role)
	if !ok {
		return Actor{}, errors.New("identity: invalid role")
	}
	actorID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || actorID == 0 {
		return Actor{}, errors.New("identity: missing subject")
	}
	return Actor{ID: actorID, Name: claims.Name, Role: role, StationID: claims.StationID}, nil
}
