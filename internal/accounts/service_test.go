package accounts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

func newTestService(t *testing.T, ids ...string) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:inkwell_accounts_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Account{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database:   db,
		Clock:      func() time.Time { return time.Unix(1700000600, 0).UTC() },
		IDProvider: &staticIDGenerator{ids: ids},
	})
	if err != nil {
		t.Fatalf("failed to construct accounts service: %v", err)
	}

	return service, db
}

func TestSignupCreatesAccount(t *testing.T) {
	service, _ := newTestService(t, "user-1")

	user, err := service.Signup(context.Background(), "Writer@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected id: %q", user.ID)
	}
	if user.Email != "writer@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
}

func TestSignupRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	service, db := newTestService(t, "user-1", "user-2")

	if _, err := service.Signup(context.Background(), "writer@example.com", "hunter22"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := service.Signup(context.Background(), "WRITER@example.COM", "different")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	var count int64
	if err := db.Model(&Account{}).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("duplicate signup must not create a record, have %d", count)
	}
}

func TestSignupRequiresEmailAndPassword(t *testing.T) {
	service, _ := newTestService(t, "user-1")

	if _, err := service.Signup(context.Background(), "", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields for empty email, got %v", err)
	}
	if _, err := service.Signup(context.Background(), "a@b.c", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields for empty password, got %v", err)
	}
}

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	service, _ := newTestService(t, "user-1")

	if _, err := service.Signup(context.Background(), "writer@example.com", "hunter22"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user, err := service.Login(context.Background(), "Writer@Example.com", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" || user.Email != "writer@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLoginUniformErrorForUnknownEmailAndBadPassword(t *testing.T) {
	service, _ := newTestService(t, "user-1")

	if _, err := service.Signup(context.Background(), "writer@example.com", "hunter22"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, unknownErr := service.Login(context.Background(), "nobody@example.com", "hunter22")
	if !errors.Is(unknownErr, ErrLoginInvalid) {
		t.Fatalf("expected ErrLoginInvalid for unknown email, got %v", unknownErr)
	}
	_, badPasswordErr := service.Login(context.Background(), "writer@example.com", "wrong")
	if !errors.Is(badPasswordErr, ErrLoginInvalid) {
		t.Fatalf("expected ErrLoginInvalid for bad password, got %v", badPasswordErr)
	}
	if unknownErr.Error() != badPasswordErr.Error() {
		t.Fatalf("login errors must not reveal which field was wrong")
	}
}

func TestPasswordsAreStoredHashed(t *testing.T) {
	service, db := newTestService(t, "user-1")

	if _, err := service.Signup(context.Background(), "writer@example.com", "hunter22"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var account Account
	if err := db.First(&account).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.PasswordHash == "hunter22" || account.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
}
