package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/okelo-dev/sokowear-backend/internal/users"
	pkgAuth "github.com/okelo-dev/sokowear-backend/pkg/auth"
	"github.com/okelo-dev/sokowear-backend/pkg/auth/session"
	"github.com/okelo-dev/sokowear-backend/pkg/config"
	"github.com/okelo-dev/sokowear-backend/pkg/db/models"
	"github.com/okelo-dev/sokowear-backend/pkg/enums"
	pkgerrors "github.com/okelo-dev/sokowear-backend/pkg/errors"
	"github.com/okelo-dev/sokowear-backend/pkg/security"
)

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "sokowear",
		ExpirationMinutes: 30,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	byEmail map[string]*models.User
	created *models.User
}

func newStubUserRepo(seed ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	for _, u := range seed {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	s.created = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	for _, u := range s.byEmail {
		if u.ID == id {
			u.LastLoginAt = &at
		}
	}
	return nil
}

type stubSessionManager struct {
	refreshToken string
	generatedFor []string
	revoked      []string
	rotateErr    error
	newAccessID  string
	newRefresh   string
	rotatedFrom  string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.generatedFor = append(s.generatedFor, accessID)
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	s.rotatedFrom = oldAccessID
	return s.newAccessID, s.newRefresh, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func buildTestService(t *testing.T, repo *stubUserRepo, mgr *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: mgr,
		JWTConfig:      jwtTestConfig(),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestServiceRegisterIssuesTokens(t *testing.T) {
	repo := newStubUserRepo()
	mgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc := buildTestService(t, repo, mgr)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Wanjiru",
		LastName:  "Okelo",
		Email:     "  Wanjiru@Example.com ",
		Password:  "sufficiently-long",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if repo.created == nil {
		t.Fatal("expected a user to be created")
	}
	if repo.created.Email != "wanjiru@example.com" {
		t.Fatalf("expected normalized email, got %q", repo.created.Email)
	}
	if repo.created.Role != enums.UserRoleUser {
		t.Fatalf("expected default user role, got %s", repo.created.Role)
	}
	if repo.created.PasswordHash == "sufficiently-long" {
		t.Fatal("password stored in the clear")
	}
	if !strings.HasPrefix(repo.created.PasswordHash, "$argon2id$") {
		t.Fatalf("unexpected hash format %q", repo.created.PasswordHash)
	}

	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("expected refresh token, got %q", resp.RefreshToken)
	}
	claims, err := pkgAuth.ParseAccessToken(jwtTestConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != repo.created.ID {
		t.Fatal("access token minted for wrong user")
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	existing := &models.User{
		ID:       uuid.New(),
		Email:    "taken@example.com",
		IsActive: true,
	}
	svc := buildTestService(t, newStubUserRepo(existing), &stubSessionManager{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "A",
		LastName:  "B",
		Email:     "taken@example.com",
		Password:  "sufficiently-long",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestServiceRegisterShortPassword(t *testing.T) {
	svc := buildTestService(t, newStubUserRepo(), &stubSessionManager{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "A",
		LastName:  "B",
		Email:     "short@example.com",
		Password:  "short",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceLogin(t *testing.T) {
	password := "customer-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Shopper",
		LastName:     "One",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	repo := newStubUserRepo(user)
	mgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc := buildTestService(t, repo, mgr)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Shopper@Example.com ",
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(jwtTestConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatal("claims carry wrong user")
	}
	if claims.Role != enums.UserRoleUser {
		t.Fatalf("expected user role claim, got %s", claims.Role)
	}
	if len(mgr.generatedFor) != 1 || mgr.generatedFor[0] != claims.ID {
		t.Fatal("session not generated for the minted jti")
	}
	if user.LastLoginAt == nil {
		t.Fatal("expected last login stamp")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatal("response user missing")
	}
}

func TestServiceLoginWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "shopper@example.com",
		PasswordHash: mustHashPassword(t, "right"),
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	svc := buildTestService(t, newStubUserRepo(user), &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginInactiveAccount(t *testing.T) {
	password := "still-knows-it"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "gone@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleUser,
		IsActive:     false,
	}
	svc := buildTestService(t, newStubUserRepo(user), &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc := buildTestService(t, newStubUserRepo(), &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	user := &models.User{
		ID:   uuid.New(),
		Role: enums.UserRoleUser,
	}
	oldJTI := session.NewAccessID()
	expired, err := pkgAuth.MintAccessToken(jwtTestConfig(), time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    oldJTI,
	})
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}

	mgr := &stubSessionManager{
		newAccessID: session.NewAccessID(),
		newRefresh:  "rotated-refresh",
	}
	svc := buildTestService(t, newStubUserRepo(), mgr)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  expired,
		RefreshToken: "old-refresh",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if mgr.rotatedFrom != oldJTI {
		t.Fatalf("expected rotation keyed on old jti %s, got %s", oldJTI, mgr.rotatedFrom)
	}
	if resp.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(jwtTestConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.ID != mgr.newAccessID {
		t.Fatal("new token does not carry the rotated jti")
	}
	if claims.UserID != user.ID {
		t.Fatal("rotated token lost the user identity")
	}
}

func TestServiceRefreshInvalidToken(t *testing.T) {
	mgr := &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	svc := buildTestService(t, newStubUserRepo(), mgr)

	token, err := pkgAuth.MintAccessToken(jwtTestConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  token,
		RefreshToken: "stolen",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceRefreshGarbageAccessToken(t *testing.T) {
	svc := buildTestService(t, newStubUserRepo(), &stubSessionManager{})

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "refresh",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceLogout(t *testing.T) {
	mgr := &stubSessionManager{}
	svc := buildTestService(t, newStubUserRepo(), mgr)

	if err := svc.Logout(context.Background(), "jti-123"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(mgr.revoked) != 1 || mgr.revoked[0] != "jti-123" {
		t.Fatal("expected session revocation")
	}

	err := svc.Logout(context.Background(), "  ")
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for blank jti, got %v", err)
	}
}
