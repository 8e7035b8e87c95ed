package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tracks-login/internal/domain"
)

func TestSessionServiceEstablish_FreshIDs(t *testing.T) {
	f := newAuthFixture(t)
	user := domain.User{ID: "u-jane"}
	ctx := context.Background()

	first, err := f.sessions.Establish(ctx, user, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	second, err := f.sessions.Establish(ctx, user, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct session ids, got %q and %q", first.ID, second.ID)
	}
	if first.UserID != "u-jane" || !first.Authenticated() {
		t.Fatalf("unexpected session: %+v", first)
	}

	// Ambas sesiones siguen vivas en paralelo.
	if _, ok, _ := f.sessions.Load(ctx, first.ID); !ok {
		t.Fatalf("expected first session to survive the second login")
	}
}

func TestSessionServiceEstablish_RequiresUser(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.sessions.Establish(context.Background(), domain.User{}, false); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}

func TestSessionServiceLoad_IdleTimeoutSlides(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.sessions.Establish(ctx, domain.User{ID: "u-jane"}, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	f.clock.Advance(50 * time.Minute)
	if _, ok, err := f.sessions.Load(ctx, session.ID); err != nil || !ok {
		t.Fatalf("expected session after 50m, ok=%v err=%v", ok, err)
	}
	f.clock.Advance(50 * time.Minute)
	if _, ok, err := f.sessions.Load(ctx, session.ID); err != nil || !ok {
		t.Fatalf("expected session to slide, ok=%v err=%v", ok, err)
	}

	f.clock.Advance(61 * time.Minute)
	if _, ok, err := f.sessions.Load(ctx, session.ID); err != nil || ok {
		t.Fatalf("expected session expired after idle timeout, ok=%v err=%v", ok, err)
	}
}

func TestSessionServiceLoad_NoExpirySurvivesIdle(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.sessions.Establish(ctx, domain.User{ID: "u-jane"}, true)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	f.clock.Advance(30 * 24 * time.Hour)
	if _, ok, err := f.sessions.Load(ctx, session.ID); err != nil || !ok {
		t.Fatalf("expected non-expiring session, ok=%v err=%v", ok, err)
	}
}

func TestSessionServiceEstablish_AdminPolicy(t *testing.T) {
	store := newMemorySessionStore(time.Now)
	admin := domain.User{ID: "u-admin", IsAdmin: true}
	ctx := context.Background()

	off := NewSessionService(zap.NewNop(), store, time.Hour, false)
	session, err := off.Establish(ctx, admin, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if session.NoExpiry {
		t.Fatalf("admin session should expire unless the policy is on")
	}

	on := NewSessionService(zap.NewNop(), store, time.Hour, true)
	session, err = on.Establish(ctx, admin, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if !session.NoExpiry {
		t.Fatalf("expected admin session never to expire")
	}
	session, err = on.Establish(ctx, domain.User{ID: "u-jane"}, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if session.NoExpiry {
		t.Fatalf("policy applies to admins only")
	}
}

func TestSessionServiceReturnTarget_FirstWinsUntilConsumed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.sessions.CaptureReturnTarget(ctx, "", "/todos/42")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if session.ID == "" || session.Authenticated() {
		t.Fatalf("expected a new anonymous session, got %+v", session)
	}

	if _, err := f.sessions.CaptureReturnTarget(ctx, session.ID, "/projects"); err != nil {
		t.Fatalf("capture: %v", err)
	}

	target, err := f.sessions.ConsumeReturnTarget(ctx, session.ID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if target != "/todos/42" {
		t.Fatalf("expected first target to win, got %q", target)
	}

	target, err = f.sessions.ConsumeReturnTarget(ctx, session.ID)
	if err != nil || target != "" {
		t.Fatalf("expected target cleared, got %q err=%v", target, err)
	}
}

func TestSessionServiceReturnTarget_RejectsForeignURLs(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for _, target := range []string{"https://evil.example/", "//evil.example/", "/\\evil.example", "todos", "/a\r\nSet-Cookie: x=y"} {
		session, err := f.sessions.CaptureReturnTarget(ctx, "", target)
		if err != nil {
			t.Fatalf("capture %q: %v", target, err)
		}
		if session.ReturnTo != "" {
			t.Fatalf("expected %q to be ignored, got %q", target, session.ReturnTo)
		}
	}
}

func TestSessionServiceDestroy(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	session, err := f.sessions.Establish(ctx, domain.User{ID: "u-jane"}, false)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if err := f.sessions.Destroy(ctx, session.ID); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, ok, err := f.sessions.Load(ctx, session.ID); err != nil || ok {
		t.Fatalf("expected no session after destroy, ok=%v err=%v", ok, err)
	}
	if err := f.sessions.Destroy(ctx, ""); err != nil {
		t.Fatalf("destroying an empty id should be a no-op, got %v", err)
	}
}

type failingSessionStore struct {
	err error
}

func (s failingSessionStore) Save(context.Context, domain.Session, time.Duration) error { return s.err }
func (s failingSessionStore) Get(context.Context, string) (domain.Session, error) {
	return domain.Session{}, s.err
}
func (s failingSessionStore) Delete(context.Context, string) error { return s.err }

func TestSessionService_StoreFailures(t *testing.T) {
	svc := NewSessionService(zap.NewNop(), failingSessionStore{err: errors.New("redis down")}, time.Hour, false)
	ctx := context.Background()

	if _, err := svc.Establish(ctx, domain.User{ID: "u-jane"}, false); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("establish: expected ErrStoreUnavailable, got %v", err)
	}
	if _, _, err := svc.Load(ctx, "s1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("load: expected ErrStoreUnavailable, got %v", err)
	}
	if err := svc.Destroy(ctx, "s1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("destroy: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSessionServiceExpiryNotice(t *testing.T) {
	hour := NewSessionService(zap.NewNop(), nil, time.Hour, false)
	if got := hour.ExpiryNotice(domain.Session{}); got != "Login successful: session will expire after 1 hour of inactivity." {
		t.Fatalf("unexpected notice %q", got)
	}
	if got := hour.ExpiryNotice(domain.Session{NoExpiry: true}); got != NoticeSessionNoExpiry {
		t.Fatalf("unexpected notice %q", got)
	}

	twoHours := NewSessionService(zap.NewNop(), nil, 2*time.Hour, false)
	if got := twoHours.ExpiryNotice(domain.Session{}); got != "Login successful: session will expire after 2 hours of inactivity." {
		t.Fatalf("unexpected notice %q", got)
	}

	minutes := NewSessionService(zap.NewNop(), nil, 90*time.Minute, false)
	if got := minutes.ExpiryNotice(domain.Session{}); got != "Login successful: session will expire after 90 minutes of inactivity." {
		t.Fatalf("unexpected notice %q", got)
	}
}

func TestHumanizeDuration_SubMinute(t *testing.T) {
	cases := map[time.Duration]string{
		30 * time.Second: "1 minute",
		time.Minute:      "1 minute",
		91 * time.Second: "2 minutes",
		3 * time.Hour:    "3 hours",
	}
	for d, want := range cases {
		if got := humanizeDuration(d); got != want {
			t.Fatalf("humanizeDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
