package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"matchpush/internal/domain/fixture"
	"matchpush/internal/gateway"
	"matchpush/internal/localization"
	"matchpush/internal/teams"
)

// AudienceAttribute is the recipient profile attribute the platform
// filters on.
const AudienceAttribute = "favorite_team"

// PayloadBuilder assembles the audience filter and the event payload for
// a fixture. Shared by the scheduler and the pre-send verifier so a
// recreated schedule looks exactly like a freshly created one.
type PayloadBuilder struct {
	resolver   *teams.Resolver
	tracked    teams.TrackedSource
	translator localization.Translator
	displayTZ  *time.Location
}

func NewPayloadBuilder(resolver *teams.Resolver, tracked teams.TrackedSource, translator localization.Translator, displayTZ *time.Location) *PayloadBuilder {
	if displayTZ == nil {
		displayTZ = time.UTC
	}
	return &PayloadBuilder{
		resolver:   resolver,
		tracked:    tracked,
		translator: translator,
		displayTZ:  displayTZ,
	}
}

// Audience resolves the fixture's participants to tracked canonical
// identities. An empty team list means there is no audience to target and
// the fixture should be skipped.
func (b *PayloadBuilder) Audience(ctx context.Context, f fixture.Fixture) (gateway.Audience, error) {
	trackedList, err := b.tracked.ListTrackedIdentities(ctx)
	if err != nil {
		return gateway.Audience{}, err
	}
	trackedSet := make(map[string]struct{}, len(trackedList))
	for _, identity := range trackedList {
		trackedSet[identity] = struct{}{}
	}

	var identities []string
	for _, raw := range []string{f.HomeName, f.AwayName} {
		canonical := b.resolver.Resolve(raw)
		if canonical == "" {
			continue
		}
		if _, ok := trackedSet[canonical]; ok {
			identities = append(identities, canonical)
		}
	}

	return gateway.Audience{
		Attribute: AudienceAttribute,
		Teams:     identities,
	}, nil
}

// Payload builds the event metadata attached to the remote schedule. The
// attempt signature is a fresh random string on every call so two create
// attempts for the same fixture are distinguishable in platform logs.
func (b *PayloadBuilder) Payload(ctx context.Context, f fixture.Fixture) gateway.Payload {
	kickoffLocal := f.KickoffUTC.In(b.displayTZ)
	return gateway.Payload{
		FixtureID:     f.ID.String(),
		HomeName:      f.HomeName,
		HomeNameLocal: b.translator.Translate(ctx, f.HomeName),
		AwayName:      f.AwayName,
		AwayNameLocal: b.translator.Translate(ctx, f.AwayName),
		Category:      f.Category,
		CategoryLabel: b.translator.Translate(ctx, f.Category),
		KickoffUTC:    f.KickoffUTC.UTC().Format(time.RFC3339),
		KickoffLocal:  kickoffLocal.Format("2 Jan 2006 15:04"),
		AttemptSig:    uuid.NewString(),
	}
}
