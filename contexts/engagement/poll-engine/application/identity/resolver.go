package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "pollstack/contexts/engagement/poll-engine/application"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	domainerrors "pollstack/contexts/engagement/poll-engine/domain/errors"
	"pollstack/contexts/engagement/poll-engine/ports"
)

const (
	DefaultPublicPrefix = "/cew-polls/"
	DefaultCampaignCode = "CEW2025"
)

// Session carries the ambient request identity material: the durable user id
// installed by the fronting auth layer, an optional client session hint, and
// an optional campaign code for conference submissions.
type Session struct {
	UserID       string
	SessionHint  string
	CampaignCode string
}

// Resolver decides, from the page path alone, whether a submission is
// attributed anonymously (append-only, one fresh token per submission) or to
// an authenticated user (replace semantics, durable token).
type Resolver struct {
	PublicPrefix    string
	DefaultCampaign string
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	Logger          *slog.Logger
}

func (r Resolver) Resolve(ctx context.Context, pagePath string, session Session) (entities.Identity, error) {
	logger := application.ResolveLogger(r.Logger)
	if r.IsPublicPath(pagePath) {
		token, err := r.anonymousToken(ctx, session)
		if err != nil {
			return entities.Identity{}, err
		}
		return entities.Identity{
			Scheme:  entities.SchemeAnonymous,
			Token:   token,
			Replace: false,
		}, nil
	}

	userID := strings.TrimSpace(session.UserID)
	if userID == "" {
		logger.Warn("submission rejected: no authenticated session",
			"event", "poll_identity_unauthorized",
			"module", "engagement/poll-engine",
			"layer", "application",
			"page_path", pagePath,
		)
		return entities.Identity{}, domainerrors.ErrUnauthorized
	}
	return entities.Identity{
		Scheme:  entities.SchemeAuthenticated,
		Token:   userID,
		Replace: true,
	}, nil
}

// IsPublicPath reports whether a page path falls under the anonymous prefix.
func (r Resolver) IsPublicPath(pagePath string) bool {
	prefix := r.PublicPrefix
	if prefix == "" {
		prefix = DefaultPublicPrefix
	}
	return strings.HasPrefix(pagePath, prefix)
}

// anonymousToken mints {campaignCode}_{suffix}. A client-supplied session hint
// keeps multi-poll walkthroughs attributable to one respondent; without a hint
// every submission gets a fresh suffix so that N walk-up submissions count as
// N respondents.
func (r Resolver) anonymousToken(ctx context.Context, session Session) (string, error) {
	campaign := strings.TrimSpace(session.CampaignCode)
	if campaign == "" {
		campaign = r.DefaultCampaign
	}
	if campaign == "" {
		campaign = DefaultCampaignCode
	}

	if hint := strings.TrimSpace(session.SessionHint); hint != "" {
		return campaign + "_" + hint, nil
	}

	suffix, err := r.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	suffix = strings.ReplaceAll(suffix, "-", "")
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("%s_session_%d_%s", campaign, r.Clock.Now().UTC().UnixMilli(), suffix), nil
}
