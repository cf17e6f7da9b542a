package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"pollstack/contexts/engagement/poll-engine/domain/entities"
	domainerrors "pollstack/contexts/engagement/poll-engine/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type sequenceIDGen struct {
	next int
}

func (g *sequenceIDGen) NewID(_ context.Context) (string, error) {
	g.next++
	return fmt.Sprintf("%06x-0000-4000-8000-000000000000", g.next), nil
}

func newResolver() Resolver {
	return Resolver{
		Clock: fixedClock{now: time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)},
		IDGen: &sequenceIDGen{},
	}
}

func TestResolvePublicPathMintsAnonymousToken(t *testing.T) {
	resolver := newResolver()

	id, err := resolver.Resolve(context.Background(), "/cew-polls/holistic-protection", Session{})
	if err != nil {
		t.Fatalf("expected anonymous identity, got %v", err)
	}
	if id.Scheme != entities.SchemeAnonymous {
		t.Fatalf("expected anonymous scheme, got %q", id.Scheme)
	}
	if id.Replace {
		t.Fatalf("anonymous identities must append, not replace")
	}
	if !strings.HasPrefix(id.Token, "CEW2025_session_") {
		t.Fatalf("unexpected token format %q", id.Token)
	}
}

func TestResolvePublicPathFreshTokensAreDistinct(t *testing.T) {
	resolver := newResolver()

	first, err := resolver.Resolve(context.Background(), "/cew-polls/prioritization", Session{})
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "/cew-polls/prioritization", Session{})
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if first.Token == second.Token {
		t.Fatalf("walk-up submissions must get distinct tokens, both were %q", first.Token)
	}
}

func TestResolvePublicPathReusesSessionHint(t *testing.T) {
	resolver := newResolver()
	session := Session{SessionHint: "tab-42"}

	first, err := resolver.Resolve(context.Background(), "/cew-polls/tiered-framework", session)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "/cew-polls/tiered-framework", session)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if first.Token != "CEW2025_tab-42" {
		t.Fatalf("expected hint-derived token, got %q", first.Token)
	}
	if first.Token != second.Token {
		t.Fatalf("hinted submissions must share a token, got %q and %q", first.Token, second.Token)
	}
}

func TestResolvePublicPathUsesCampaignCodeOverride(t *testing.T) {
	resolver := newResolver()

	id, err := resolver.Resolve(context.Background(), "/cew-polls/wiks", Session{
		CampaignCode: "CEW2026",
		SessionHint:  "tab-1",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id.Token != "CEW2026_tab-1" {
		t.Fatalf("expected campaign override in token, got %q", id.Token)
	}
}

func TestResolveAuthenticatedPathRequiresUser(t *testing.T) {
	resolver := newResolver()

	_, err := resolver.Resolve(context.Background(), "/survey-results/holistic-protection", Session{})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestResolveAuthenticatedPathUsesUserID(t *testing.T) {
	resolver := newResolver()

	id, err := resolver.Resolve(context.Background(), "/survey-results/holistic-protection", Session{UserID: "user-7"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if id.Scheme != entities.SchemeAuthenticated {
		t.Fatalf("expected authenticated scheme, got %q", id.Scheme)
	}
	if !id.Replace {
		t.Fatalf("authenticated identities must replace prior votes")
	}
	if id.Token != "user-7" {
		t.Fatalf("expected user id token, got %q", id.Token)
	}
}
