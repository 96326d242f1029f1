package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/pokedex/internal/model"
	"github.com/hitoshi/pokedex/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	findByUsernameFn  func(ctx context.Context, username string) (*model.User, error)
	createFn          func(ctx context.Context, user *model.User) error
	updateFn          func(ctx context.Context, user *model.User) error
	updateAuthTokenFn func(ctx context.Context, username, token string) error
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateAuthToken(ctx context.Context, username, token string) error {
	if m.updateAuthTokenFn != nil {
		return m.updateAuthTokenFn(ctx, username, token)
	}
	return nil
}

type mockBlacklistRepo struct {
	addFn      func(ctx context.Context, token string) error
	containsFn func(ctx context.Context, token string) (bool, error)
}

func (m *mockBlacklistRepo) Add(ctx context.Context, token string) error {
	if m.addFn != nil {
		return m.addFn(ctx, token)
	}
	return nil
}

func (m *mockBlacklistRepo) Contains(ctx context.Context, token string) (bool, error) {
	if m.containsFn != nil {
		return m.containsFn(ctx, token)
	}
	return false, nil
}

// memoryBlacklist は冪等性の検証に使うインメモリ実装。
type memoryBlacklist struct {
	tokens map[string]int // token -> Add呼び出し回数
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{tokens: map[string]int{}}
}

func (m *memoryBlacklist) Add(ctx context.Context, token string) error {
	m.tokens[token]++
	return nil
}

func (m *memoryBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	_, ok := m.tokens[token]
	return ok, nil
}

type noopSanitizer struct{}

func (noopSanitizer) Sanitize(raw string) string { return raw }

type spyMetrics struct {
	loginSuccess  int
	loginFailure  int
	tokensIssued  int
	tokensRevoked int
}

func (m *spyMetrics) RecordLoginSuccess() { m.loginSuccess++ }
func (m *spyMetrics) RecordLoginFailure() { m.loginFailure++ }
func (m *spyMetrics) RecordTokenIssued()  { m.tokensIssued++ }
func (m *spyMetrics) RecordTokenRevoked() { m.tokensRevoked++ }

func newTestService(users *mockUserRepo, blacklist repository.BlacklistRepository) (*Service, *spyMetrics) {
	metrics := &spyMetrics{}
	svc := NewService(
		users,
		blacklist,
		NewTokenService(testSecret, 10*time.Minute),
		NewPasswordHasher(),
		noopSanitizer{},
		metrics,
	)
	return svc, metrics
}

// --- Signup ---

func TestService_Signup_CreatesUserAndReturnsToken(t *testing.T) {
	var created *model.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc, metrics := newTestService(users, &mockBlacklistRepo{})

	token, err := svc.Signup(context.Background(), "satoshi", "pikapika", "Satoshi", "Masara Town", 10)
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	if created == nil {
		t.Fatal("expected Create to be called")
	}
	if created.Username != "satoshi" {
		t.Errorf("Username = %q, want %q", created.Username, "satoshi")
	}
	if created.PasswordHash == "pikapika" || created.PasswordHash == "" {
		t.Error("password should be stored hashed, never in plaintext")
	}
	if created.AuthToken != token {
		t.Error("issued token should be cached on the user record")
	}
	if metrics.tokensIssued != 1 {
		t.Errorf("tokensIssued = %d, want 1", metrics.tokensIssued)
	}

	// 発行されたトークンはそのまま認証に使える
	subject, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if subject != "satoshi" {
		t.Errorf("subject = %q, want %q", subject, "satoshi")
	}
}

func TestService_Signup_DuplicateUsername_ReturnsErrUserExists(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return model.ErrUserExists
		},
	}
	svc, _ := newTestService(users, &mockBlacklistRepo{})

	_, err := svc.Signup(context.Background(), "satoshi", "pikapika", "", "", 0)
	if !errors.Is(err, model.ErrUserExists) {
		t.Errorf("Signup = %v, want ErrUserExists", err)
	}
}

// --- Login ---

func loginTestUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := NewPasswordHasher().Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &model.User{Username: "satoshi", PasswordHash: hash}
}

func TestService_Login_ValidCredentials_ReturnsToken(t *testing.T) {
	user := loginTestUser(t, "pikapika")
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return user, nil
		},
	}
	svc, metrics := newTestService(users, &mockBlacklistRepo{})

	token, err := svc.Login(context.Background(), "satoshi", "pikapika")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if metrics.loginSuccess != 1 {
		t.Errorf("loginSuccess = %d, want 1", metrics.loginSuccess)
	}
}

// TestService_Login_FailuresAreIndistinguishable はユーザー不在と
// パスワード不一致が同一のエラーになることを検証する。
// レスポンスの違いからユーザー名の存在を推測されることを防ぐ。
func TestService_Login_FailuresAreIndistinguishable(t *testing.T) {
	user := loginTestUser(t, "pikapika")

	missingUser := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, nil
		},
	}
	wrongPassword := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return user, nil
		},
	}

	svcMissing, _ := newTestService(missingUser, &mockBlacklistRepo{})
	svcWrong, _ := newTestService(wrongPassword, &mockBlacklistRepo{})

	_, errMissing := svcMissing.Login(context.Background(), "nobody", "pikapika")
	_, errWrong := svcWrong.Login(context.Background(), "satoshi", "wrong")

	if errMissing != model.ErrUnauthorized {
		t.Errorf("missing user error = %v, want ErrUnauthorized", errMissing)
	}
	if errWrong != model.ErrUnauthorized {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", errWrong)
	}
	if errMissing != errWrong {
		t.Error("both failure modes must return the identical error")
	}
}

func TestService_Login_RecordsFailureMetric(t *testing.T) {
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, nil
		},
	}
	svc, metrics := newTestService(users, &mockBlacklistRepo{})

	svc.Login(context.Background(), "nobody", "pw")
	if metrics.loginFailure != 1 {
		t.Errorf("loginFailure = %d, want 1", metrics.loginFailure)
	}
}

// TestService_Login_AuthTokenCacheFailureDoesNotFailLogin は
// auth_tokenキャッシュの更新失敗がログイン自体を失敗させないことを検証する。
func TestService_Login_AuthTokenCacheFailureDoesNotFailLogin(t *testing.T) {
	user := loginTestUser(t, "pikapika")
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return user, nil
		},
		updateAuthTokenFn: func(ctx context.Context, username, token string) error {
			return errors.New("cache write failed")
		},
	}
	svc, _ := newTestService(users, &mockBlacklistRepo{})

	token, err := svc.Login(context.Background(), "satoshi", "pikapika")
	if err != nil {
		t.Fatalf("Login should succeed despite cache failure: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
}

// --- Logout / Revoke / Authenticate ---

func TestService_LogoutThenAuthenticate_Rejected(t *testing.T) {
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return loginTestUser(t, "pikapika"), nil
		},
	}
	svc, _ := newTestService(users, newMemoryBlacklist())

	token, err := svc.Login(context.Background(), "satoshi", "pikapika")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	// ログアウト前は通る
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Fatalf("Authenticate before logout failed: %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	// 失効後は残存有効期間内でも拒否される
	if _, err := svc.Authenticate(context.Background(), token); err != model.ErrUnauthorized {
		t.Errorf("Authenticate after logout = %v, want ErrUnauthorized", err)
	}
}

func TestService_Logout_IsIdempotent(t *testing.T) {
	blacklist := newMemoryBlacklist()
	svc, metrics := newTestService(&mockUserRepo{}, blacklist)

	for i := 0; i < 3; i++ {
		if err := svc.Logout(context.Background(), "some-token"); err != nil {
			t.Fatalf("Logout #%d returned error: %v", i+1, err)
		}
	}
	if metrics.tokensRevoked != 3 {
		t.Errorf("tokensRevoked = %d, want 3", metrics.tokensRevoked)
	}
}

// TestService_Logout_AcceptsInvalidToken は不正なトークンの失効も
// エラーにならないことを検証する。失効はトークンの有効性を前提にしない。
func TestService_Logout_AcceptsInvalidToken(t *testing.T) {
	svc, _ := newTestService(&mockUserRepo{}, newMemoryBlacklist())

	if err := svc.Logout(context.Background(), "garbage-token"); err != nil {
		t.Errorf("Logout(garbage) returned error: %v", err)
	}
}

// TestService_Authenticate_ChecksBlacklistBeforeVerify はブラックリスト照合が
// 署名検証より先に行われることを検証する。暗号的に不正なトークンでも
// 失効済みなら署名検証に到達せず拒否される。
func TestService_Authenticate_ChecksBlacklistBeforeVerify(t *testing.T) {
	containsCalled := false
	blacklist := &mockBlacklistRepo{
		containsFn: func(ctx context.Context, token string) (bool, error) {
			containsCalled = true
			return true, nil
		},
	}
	svc, _ := newTestService(&mockUserRepo{}, blacklist)

	// 形式的にも不正なトークン。ブラックリスト照合が先ならErrUnauthorizedが返る。
	_, err := svc.Authenticate(context.Background(), "revoked-but-malformed")
	if err != model.ErrUnauthorized {
		t.Errorf("Authenticate = %v, want ErrUnauthorized", err)
	}
	if !containsCalled {
		t.Error("blacklist must be consulted before signature verification")
	}
}

func TestService_Authenticate_BlacklistErrorPropagates(t *testing.T) {
	blacklist := &mockBlacklistRepo{
		containsFn: func(ctx context.Context, token string) (bool, error) {
			return false, errors.New("store unavailable")
		},
	}
	svc, _ := newTestService(&mockUserRepo{}, blacklist)

	_, err := svc.Authenticate(context.Background(), "any-token")
	if err == nil || errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("store errors must not be collapsed into ErrUnauthorized, got %v", err)
	}
}

// --- Profile ---

func TestService_GetProfile_UserGone_Unauthorized(t *testing.T) {
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, nil
		},
	}
	svc, _ := newTestService(users, &mockBlacklistRepo{})

	_, err := svc.GetProfile(context.Background(), "ghost")
	if err != model.ErrUnauthorized {
		t.Errorf("GetProfile = %v, want ErrUnauthorized", err)
	}
}

func TestService_UpdateProfile_PartialUpdate(t *testing.T) {
	existing := &model.User{
		Username:     "satoshi",
		PasswordHash: "old-hash",
		Name:         "Satoshi",
		Address:      "Masara Town",
		Age:          10,
	}
	var updated *model.User
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	svc, _ := newTestService(users, &mockBlacklistRepo{})

	newName := "Ash"
	err := svc.UpdateProfile(context.Background(), "satoshi", model.UserUpdate{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	if updated == nil {
		t.Fatal("expected Update to be called")
	}
	if updated.Name != "Ash" {
		t.Errorf("Name = %q, want %q", updated.Name, "Ash")
	}
	// 省略されたフィールドは保持される
	if updated.Address != "Masara Town" {
		t.Errorf("Address = %q, want unchanged %q", updated.Address, "Masara Town")
	}
	if updated.Age != 10 {
		t.Errorf("Age = %d, want unchanged 10", updated.Age)
	}
	if updated.PasswordHash != "old-hash" {
		t.Error("PasswordHash should be unchanged when password is omitted")
	}
	// usernameは不変
	if updated.Username != "satoshi" {
		t.Errorf("Username = %q, want immutable %q", updated.Username, "satoshi")
	}
}

// TestService_UpdateProfile_PasswordIsRehashed はパスワード更新時に
// 平文が保存されないことを検証する。
func TestService_UpdateProfile_PasswordIsRehashed(t *testing.T) {
	existing := &model.User{Username: "satoshi", PasswordHash: "old-hash"}
	var updated *model.User
	users := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, user *model.User) error {
			updated = user
			return nil
		},
	}
	svc, _ := newTestService(users, &mockBlacklistRepo{})

	newPassword := "raichu-power"
	err := svc.UpdateProfile(context.Background(), "satoshi", model.UserUpdate{Password: &newPassword})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}

	if updated.PasswordHash == "raichu-power" {
		t.Error("plaintext password must never be stored")
	}
	if updated.PasswordHash == "old-hash" {
		t.Error("password hash should have been replaced")
	}
	if !NewPasswordHasher().Verify("raichu-power", updated.PasswordHash) {
		t.Error("new hash should verify against the new password")
	}
}
