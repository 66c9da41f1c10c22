package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

// Client is one statically configured API client allowed to call this
// service (the mobile app backend, the IVR gateway).
type Client struct {
	ID     string
	Name   string
	Secret string
	Role   string
}

// Service issues and validates HS256 bearer tokens for configured API
// clients. End users never authenticate here; they are identified by the
// user_id the calling client vouches for.
type Service struct {
	clients   map[string]Client
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *zap.Logger
}

func NewService(clients []Client, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) ports.AuthService {
	byID := make(map[string]Client, len(clients))
	for _, c := range clients {
		byID[c.ID] = c
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{
		clients:   byID,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

func (s *Service) IssueToken(ctx context.Context, clientID, clientSecret string) (string, error) {
	client, ok := s.clients[clientID]
	if !ok || subtle.ConstantTimeCompare([]byte(client.Secret), []byte(clientSecret)) != 1 {
		s.log.Warn("Token issuance refused", zap.String("client_id", clientID))
		return "", errors.New("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  client.ID,
		"name": client.Name,
		"role": client.Role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	s.log.Info("Token issued", zap.String("client_id", clientID))
	return signed, nil
}

func (s *Service) ValidateToken(ctx context.Context, tokenStr string) (*domain.APIClient, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	clientID, ok := claims["sub"].(string)
	if !ok {
		return nil, errors.New("invalid sub")
	}
	if _, known := s.clients[clientID]; !known {
		return nil, errors.New("unknown client")
	}

	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)

	return &domain.APIClient{
		ID:   clientID,
		Name: name,
		Role: role,
	}, nil
}
