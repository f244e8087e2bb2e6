package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/voltmart/storefront/internal/dto"
	"github.com/voltmart/storefront/internal/model"
	"github.com/voltmart/storefront/internal/repository"
)

var (
	ErrInvalidState = errors.New("invalid or expired oauth state")
	ErrNoSubject    = errors.New("provider returned no subject id")
)

const (
	oauthStateTTL     = 10 * time.Minute
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateKeyBase = "oauth_state:"
)

// googleProfile is the subset of the userinfo response the store needs.
// The provider-assigned id becomes the user's primary key.
type googleProfile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// AuthService delegates identity to Google OAuth and issues session tokens.
// There is no local credential of any kind.
type AuthService struct {
	userRepo      repository.UserRepository
	redisClient   *redis.Client
	oauthConfig   *oauth2.Config
	sessionSecret []byte
	sessionExpiry time.Duration
	userinfoURL   string
}

func NewAuthService(userRepo repository.UserRepository, redisClient *redis.Client, oauthConfig *oauth2.Config, sessionSecret string, sessionExpiry time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		redisClient:   redisClient,
		oauthConfig:   oauthConfig,
		sessionSecret: []byte(sessionSecret),
		sessionExpiry: sessionExpiry,
		userinfoURL:   googleUserinfoURL,
	}
}

// LoginURL stores a single-use state nonce and returns the consent URL.
func (s *AuthService) LoginURL(ctx context.Context) (string, error) {
	state := uuid.NewString()
	if err := s.redisClient.Set(ctx, oauthStateKeyBase+state, "1", oauthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return s.oauthConfig.AuthCodeURL(state), nil
}

// HandleCallback verifies the state nonce, exchanges the code, fetches the
// profile, and logs the user in.
func (s *AuthService) HandleCallback(ctx context.Context, state, code string) (*dto.AuthResponse, error) {
	if state == "" {
		return nil, ErrInvalidState
	}
	if err := s.redisClient.GetDel(ctx, oauthStateKeyBase+state).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("check oauth state: %w", err)
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, profile)
}

func (s *AuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (*googleProfile, error) {
	resp, err := s.oauthConfig.Client(ctx, token).Get(s.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}

	profile := &googleProfile{}
	if err := json.NewDecoder(resp.Body).Decode(profile); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	return profile, nil
}

// completeLogin upserts the user keyed by the provider subject and issues a
// session token carrying the id and admin flag.
func (s *AuthService) completeLogin(ctx context.Context, profile *googleProfile) (*dto.AuthResponse, error) {
	if profile.ID == "" {
		return nil, ErrNoSubject
	}

	user := &model.User{
		ID:              profile.ID,
		Email:           profile.Email,
		FirstName:       profile.GivenName,
		LastName:        profile.FamilyName,
		ProfileImageURL: profile.Picture,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	sessionToken, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: sessionToken, User: toUserResponse(user)}, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"admin": user.IsAdmin,
		"exp":   now.Add(s.sessionExpiry).Unix(),
		"iat":   now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionSecret)
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		FullName:        user.FullName(),
		ProfileImageURL: user.ProfileImageURL,
		IsAdmin:         user.IsAdmin,
	}
}
