package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/pokedex/internal/model"
	"github.com/hitoshi/pokedex/internal/repository"
)

// Sanitizer は自由入力フィールドのサニタイズ機能のインターフェース。
// security.Sanitizerの部分集合として定義する。
type Sanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordTokenIssued()
	RecordTokenRevoked()
}

// Service は認証とユーザー管理のビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	blacklist repository.BlacklistRepository
	tokens    *TokenService
	hasher    *PasswordHasher
	sanitizer Sanitizer
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	blacklist repository.BlacklistRepository,
	tokens *TokenService,
	hasher *PasswordHasher,
	sanitizer Sanitizer,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		users:     users,
		blacklist: blacklist,
		tokens:    tokens,
		hasher:    hasher,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// Signup は新規ユーザーを作成し、トークンを発行して返す。
// ユーザー名が既に存在する場合はmodel.ErrUserExistsを返す。
// 重複判定は事前チェックではなくストアの一意制約に委ねるため、
// 同時サインアップでも片方だけが成功する。
// 発行したトークンはauth_tokenキャッシュ列にも格納される。
func (s *Service) Signup(ctx context.Context, username, password, name, address string, age int) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	now := time.Now()
	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Name:         s.sanitizer.Sanitize(name),
		Address:      s.sanitizer.Sanitize(address),
		Age:          age,
		AuthToken:    token,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return "", model.ErrUserExists
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.RecordTokenIssued()
	slog.Info("user signed up", slog.String("username", username))

	return token, nil
}

// Login は資格情報を検証し、新しいトークンを発行して返す。
// ユーザーが存在しない場合もパスワード不一致の場合も同一の
// model.ErrUnauthorizedを返し、どちらが失敗したかを漏らさない。
// 発行のたびに独立したトークンが作られ、過去のトークンは
// 明示的なログアウトがない限り自然失効まで有効なまま残る。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLoginFailure()
		return "", model.ErrUnauthorized
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	// auth_tokenキャッシュの更新はベストエフォート。
	// 失敗してもログインは成功として扱う。
	if err := s.users.UpdateAuthToken(ctx, username, token); err != nil {
		slog.Error("failed to update auth token cache",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.RecordLoginSuccess()
	s.metrics.RecordTokenIssued()
	slog.Info("user logged in", slog.String("username", username))

	return token, nil
}

// Logout はトークンを失効させる。
// トークン自体の有効性は検証しない（期限切れや不正なトークンの失効も
// エラーにはならない）。二重ログアウトも冪等に成功する。
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.Revoke(ctx, token); err != nil {
		return err
	}
	slog.Info("user logged out")
	return nil
}

// Revoke はトークンをブラックリストへ冪等に追加する。
func (s *Service) Revoke(ctx context.Context, token string) error {
	if err := s.blacklist.Add(ctx, token); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.metrics.RecordTokenRevoked()
	return nil
}

// Authenticate はベアラートークンを検証し、認証されたユーザー名を返す。
// ブラックリストの照合を署名・期限検証より先に行う。
// 失効は残存有効期間内の暗号的な有効性より優先されるため、
// この順序を入れ替えてはならない。
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to check blacklist: %w", err)
	}
	if revoked {
		return "", model.ErrUnauthorized
	}

	return s.tokens.Verify(token)
}

// GetProfile は認証済みユーザーのプロフィールを返す。
// 認証後にユーザーが消えている場合はmodel.ErrUnauthorizedを返す。
// 返り値のPasswordHashとAuthTokenはレスポンスへ含めないこと
// （ハンドラー側のレスポンス型が除外する）。
func (s *Service) GetProfile(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUnauthorized
	}
	return user, nil
}

// UpdateProfile はプロフィールを部分更新する。
// nilのフィールドは変更されない。usernameは不変で、変更要求は無視される
// （ペイロードに含まれない設計）。Passwordが指定された場合は
// 保存前に必ず再ハッシュされ、平文のまま格納されることはない。
func (s *Service) UpdateProfile(ctx context.Context, username string, update model.UserUpdate) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.ErrUnauthorized
	}

	if update.Password != nil {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if update.Name != nil {
		user.Name = s.sanitizer.Sanitize(*update.Name)
	}
	if update.Address != nil {
		user.Address = s.sanitizer.Sanitize(*update.Address)
	}
	if update.Age != nil {
		user.Age = *update.Age
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user profile updated", slog.String("username", username))
	return nil
}
