package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atrium-app/atrium/internal/shared"
)

type stubRepo struct {
	byID       map[uuid.UUID]User
	byUsername map[string]uuid.UUID
	log        []AdminLogEntry
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byID:       map[uuid.UUID]User{},
		byUsername: map[string]uuid.UUID{},
	}
}

func (s *stubRepo) addUser(t *testing.T, username, password string, isAdmin bool) uuid.UUID {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	id := uuid.New()
	s.byID[id] = User{ID: id, Username: username, Email: username + "@example.com", PasswordHash: string(hash), IsAdmin: isAdmin}
	s.byUsername[username] = id
	return id
}

func (s *stubRepo) CreateUser(_ context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	if _, taken := s.byUsername[username]; taken {
		return uuid.Nil, ErrDuplicateUsername
	}
	for _, u := range s.byID {
		if u.Email == email {
			return uuid.Nil, ErrDuplicateEmail
		}
	}
	id := uuid.New()
	s.byID[id] = User{ID: id, Username: username, Email: email, PasswordHash: passwordHash}
	s.byUsername[username] = id
	return id, nil
}

func (s *stubRepo) FindByUsername(_ context.Context, username string) (User, error) {
	id, ok := s.byUsername[username]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return s.byID[id], nil
}

func (s *stubRepo) GetByID(_ context.Context, userID uuid.UUID) (User, error) {
	u, ok := s.byID[userID]
	if !ok {
		return User{}, ErrUnknownUser
	}
	return u, nil
}

func (s *stubRepo) UpdateUsername(_ context.Context, userID uuid.UUID, username string) error {
	u, ok := s.byID[userID]
	if !ok {
		return ErrUnknownUser
	}
	if other, taken := s.byUsername[username]; taken && other != userID {
		return ErrDuplicateUsername
	}
	delete(s.byUsername, u.Username)
	u.Username = username
	s.byID[userID] = u
	s.byUsername[username] = userID
	return nil
}

func (s *stubRepo) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	u, ok := s.byID[userID]
	if !ok {
		return ErrUnknownUser
	}
	u.PasswordHash = passwordHash
	s.byID[userID] = u
	return nil
}

func (s *stubRepo) RequireAdmin(_ context.Context, userID uuid.UUID) error {
	u, ok := s.byID[userID]
	if !ok {
		return ErrUnknownUser
	}
	if !u.IsAdmin {
		return shared.Reject(shared.ReasonNotAuthorized, "admin privileges required")
	}
	return nil
}

func (s *stubRepo) ListAdminLog(_ context.Context) ([]AdminLogEntry, error) {
	return s.log, nil
}

func newTestService(repo *stubRepo) *Service {
	return NewService(repo, NewTokenIssuer([]byte("test-secret"), time.Hour))
}

func TestSignupAndLogin(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	userID, err := svc.Signup(context.Background(), "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	result, err := svc.Login(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.UserID != userID {
		t.Fatalf("login user = %s, want %s", result.UserID, userID)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}

	claims, err := svc.tokens.Parse(result.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != userID.String() || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestAuthenticate(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)
	userID := repo.addUser(t, "bob", "correct horse", false)

	result, err := svc.Login(context.Background(), "bob", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != userID || user.Username != "bob" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)
	userID := repo.addUser(t, "bob", "correct horse", false)

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty token: got %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := svc.Authenticate(context.Background(), "not.a.token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("garbage token: got %v, want %v", err, ErrInvalidCredentials)
	}

	forged, err := NewTokenIssuer([]byte("other-secret"), time.Hour).Issue(repo.byID[userID])
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), forged); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong signature: got %v, want %v", err, ErrInvalidCredentials)
	}

	result, err := svc.Login(context.Background(), "bob", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	delete(repo.byID, userID)
	if _, err := svc.Authenticate(context.Background(), result.Token); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("deleted account: got %v, want %v", err, ErrUnknownUser)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "alice", "pw", false)
	svc := newTestService(repo)

	_, err := svc.Signup(context.Background(), "alice", "other@example.com", "password")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected duplicate_username, got %v", err)
	}
}

func TestSignupStoresHashNotPassword(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	userID, err := svc.Signup(context.Background(), "alice", "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	stored := repo.byID[userID]
	if stored.PasswordHash == "correct horse" {
		t.Fatal("password stored in the clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	repo.addUser(t, "alice", "right", false)
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user must look like bad credentials, got %v", err)
	}
}

func TestUpdateUsername(t *testing.T) {
	repo := newStubRepo()
	alice := repo.addUser(t, "alice", "pw", false)
	repo.addUser(t, "bob", "pw", false)
	svc := newTestService(repo)

	if err := svc.UpdateUsername(context.Background(), alice, "alice2"); err != nil {
		t.Fatalf("UpdateUsername: %v", err)
	}
	if repo.byID[alice].Username != "alice2" {
		t.Fatalf("username = %q, want alice2", repo.byID[alice].Username)
	}

	if err := svc.UpdateUsername(context.Background(), alice, "bob"); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected duplicate_username, got %v", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	repo := newStubRepo()
	alice := repo.addUser(t, "alice", "old password", false)
	svc := newTestService(repo)

	if err := svc.UpdatePassword(context.Background(), alice, "wrong", "new password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := svc.UpdatePassword(context.Background(), alice, "old password", "new password"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice", "new password"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice", "old password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
}

func TestViewAdminLogRequiresAdmin(t *testing.T) {
	repo := newStubRepo()
	admin := repo.addUser(t, "root", "pw", true)
	regular := repo.addUser(t, "alice", "pw", false)
	repo.log = []AdminLogEntry{{LogID: uuid.New(), Operation: "add", RoomName: "Boardroom", Capacity: 12, LoggedAt: time.Now()}}
	svc := newTestService(repo)

	_, err := svc.ViewAdminLog(context.Background(), regular)
	rej, ok := shared.AsRejection(err)
	if !ok || rej.Code != shared.ReasonNotAuthorized {
		t.Fatalf("expected not_authorized, got %v", err)
	}

	entries, err := svc.ViewAdminLog(context.Background(), admin)
	if err != nil {
		t.Fatalf("ViewAdminLog: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "add" {
		t.Fatalf("unexpected log %+v", entries)
	}
}
