package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perscribe/persona-backend/internal/model"
)

func permissiveFilter() model.ContentFilter {
	return model.ContentFilter{AllowExplicit: true, AllowPersonalInfo: true, AllowSecrets: true, AllowMedia: true}
}

func TestCreatePersona_SecondMainRejected(t *testing.T) {
	st := newTestStore(t)
	u, _ := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)

	_, err := svc.CreatePersona(context.Background(), CreatePersonaRequest{
		OwnerUserID:   u.UserID,
		Kind:          model.KindMain,
		Name:          "Another Main",
		PrivacyLevel:  model.PrivacyPrivate,
		ContentFilter: permissiveFilter(),
	})
	require.True(t, model.IsDuplicateMainPersonaError(err), "got %v", err)
}

func TestCreatePersona_ChildOfChildRejected(t *testing.T) {
	st := newTestStore(t)
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	ctx := context.Background()

	child, err := svc.CreatePersona(ctx, CreatePersonaRequest{
		OwnerUserID:     u.UserID,
		Kind:            model.KindChild,
		ParentPersonaID: &main.PersonaID,
		Name:            "Gaming",
		PrivacyLevel:    model.PrivacyFriends,
	})
	require.NoError(t, err)

	_, err = svc.CreatePersona(ctx, CreatePersonaRequest{
		OwnerUserID:     u.UserID,
		Kind:            model.KindChild,
		ParentPersonaID: &child.PersonaID,
		Name:            "Grandchild",
		PrivacyLevel:    model.PrivacyFriends,
	})
	require.True(t, model.IsInvalidHierarchyError(err), "got %v", err)
}

func TestCreatePersona_ParentOwnershipHidden(t *testing.T) {
	st := newTestStore(t)
	_, mainA := registerUser(t, st, "a@example.com")
	userB, _ := registerUser(t, st, "b@example.com")
	svc := NewPersonaService(st)

	// Deriving from someone else's main persona reads as not-found, not as a
	// permission error, so persona IDs cannot be probed.
	_, err := svc.CreatePersona(context.Background(), CreatePersonaRequest{
		OwnerUserID:     userB.UserID,
		Kind:            model.KindChild,
		ParentPersonaID: &mainA.PersonaID,
		Name:            "Sneaky",
		PrivacyLevel:    model.PrivacyPrivate,
	})
	require.True(t, model.IsNotFoundError(err), "got %v", err)
}

func TestCreatePersona_SnapshotFiltersInheritedTraits(t *testing.T) {
	st := newTestStore(t)
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	ctx := context.Background()

	addTrait := func(topic string, sens model.Sensitivity, media []string, expires *time.Time) *model.TraitEntry {
		e, err := st.Traits().Create(ctx, &model.TraitEntry{
			PersonaID: main.PersonaID, Sensitivity: sens, Topic: topic,
			Content: "about " + topic, Confidence: 0.8, MediaRefs: media, ExpiresAt: expires,
		})
		require.NoError(t, err)
		return e
	}
	past := time.Now().UTC().Add(-time.Hour)
	public := addTrait("music", model.SensitivityPublic, nil, nil)
	addTrait("diary", model.SensitivitySecret, nil, nil)
	addTrait("vacation", model.SensitivityPublic, []string{"media://beach"}, nil)
	addTrait("old-news", model.SensitivityPublic, nil, &past)

	child, err := svc.CreatePersona(ctx, CreatePersonaRequest{
		OwnerUserID:     u.UserID,
		Kind:            model.KindPublic,
		ParentPersonaID: &main.PersonaID,
		Name:            "Public",
		PrivacyLevel:    model.PrivacyPublic,
		ContentFilter:   model.ContentFilter{AllowPersonalInfo: true},
	})
	require.NoError(t, err)

	inherited, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: child.PersonaID})
	require.NoError(t, err)
	require.Len(t, inherited, 1, "secret, media and expired entries must not be inherited")
	require.Equal(t, "music", inherited[0].Topic)
	require.NotNil(t, inherited[0].InheritedFrom)
	require.Equal(t, public.EntryID, *inherited[0].InheritedFrom)

	// Later parent learning stays with the parent: the snapshot is taken at
	// creation and never refreshed.
	addTrait("new-hobby", model.SensitivityPublic, nil, nil)
	inherited, err = st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: child.PersonaID})
	require.NoError(t, err)
	require.Len(t, inherited, 1)
}

func TestCreatePersona_NoEscalation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// A parent that restricts: no secrets, politics blocked, topics limited,
	// depth capped. Children may only narrow further.
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	restricted := main
	restricted.ContentFilter = model.ContentFilter{AllowPersonalInfo: true, AllowMedia: true}
	restricted.GuardRails = model.GuardRails{
		BlockedTopics:       []string{"politics"},
		AllowedTopics:       []string{"cooking", "travel"},
		MaxInteractionDepth: 5,
	}
	_, err := st.Personas().Update(ctx, restricted)
	require.NoError(t, err)

	base := CreatePersonaRequest{
		OwnerUserID:     u.UserID,
		Kind:            model.KindChild,
		ParentPersonaID: &main.PersonaID,
		Name:            "Child",
		PrivacyLevel:    model.PrivacyFriends,
		ContentFilter:   model.ContentFilter{AllowPersonalInfo: true},
		GuardRails: model.GuardRails{
			BlockedTopics:       []string{"politics"},
			AllowedTopics:       []string{"cooking"},
			MaxInteractionDepth: 3,
		},
	}

	cases := []struct {
		name   string
		mutate func(*CreatePersonaRequest)
	}{
		{"secrets wider than parent", func(r *CreatePersonaRequest) { r.ContentFilter.AllowSecrets = true }},
		{"explicit wider than parent", func(r *CreatePersonaRequest) { r.ContentFilter.AllowExplicit = true }},
		{"parent block dropped", func(r *CreatePersonaRequest) { r.GuardRails.BlockedTopics = nil }},
		{"allow list widened", func(r *CreatePersonaRequest) {
			r.GuardRails.AllowedTopics = []string{"cooking", "politics-adjacent"}
		}},
		{"allow list removed entirely", func(r *CreatePersonaRequest) { r.GuardRails.AllowedTopics = nil }},
		{"depth cap lifted", func(r *CreatePersonaRequest) { r.GuardRails.MaxInteractionDepth = 0 }},
		{"depth cap raised", func(r *CreatePersonaRequest) { r.GuardRails.MaxInteractionDepth = 6 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			req.GuardRails.BlockedTopics = append([]string(nil), base.GuardRails.BlockedTopics...)
			req.GuardRails.AllowedTopics = append([]string(nil), base.GuardRails.AllowedTopics...)
			tc.mutate(&req)
			_, err := svc.CreatePersona(ctx, req)
			require.True(t, model.IsGuardRailViolationError(err), "got %v", err)
		})
	}

	// The compliant configuration passes.
	ok := base
	created, err := svc.CreatePersona(ctx, ok)
	require.NoError(t, err)
	require.Equal(t, model.KindChild, created.Kind)
}

func TestUpdatePersona_MainImmutability(t *testing.T) {
	st := newTestStore(t)
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	ctx := context.Background()

	// Name and description remain editable.
	name := "Me, properly"
	updated, err := svc.UpdatePersona(ctx, u.UserID, main.PersonaID, model.PersonaPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)

	public := model.PrivacyPublic
	_, err = svc.UpdatePersona(ctx, u.UserID, main.PersonaID, model.PersonaPatch{PrivacyLevel: &public})
	require.True(t, model.IsImmutablePersonaError(err), "privacy: got %v", err)

	_, err = svc.UpdatePersona(ctx, u.UserID, main.PersonaID, model.PersonaPatch{GuardRails: &model.GuardRails{}})
	require.True(t, model.IsImmutablePersonaError(err), "guard rails: got %v", err)

	cf := model.ContentFilter{}
	_, err = svc.UpdatePersona(ctx, u.UserID, main.PersonaID, model.PersonaPatch{ContentFilter: &cf})
	require.True(t, model.IsImmutablePersonaError(err), "content filter: got %v", err)
}

func TestUpdatePersona_ChildRevalidatedAgainstParent(t *testing.T) {
	st := newTestStore(t)
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	ctx := context.Background()

	restricted := main
	restricted.ContentFilter = model.ContentFilter{AllowPersonalInfo: true}
	_, err := st.Personas().Update(ctx, restricted)
	require.NoError(t, err)

	child, err := svc.CreatePersona(ctx, CreatePersonaRequest{
		OwnerUserID:     u.UserID,
		Kind:            model.KindChild,
		ParentPersonaID: &main.PersonaID,
		Name:            "Child",
		PrivacyLevel:    model.PrivacyFriends,
	})
	require.NoError(t, err)

	widened := model.ContentFilter{AllowSecrets: true}
	_, err = svc.UpdatePersona(ctx, u.UserID, child.PersonaID, model.PersonaPatch{ContentFilter: &widened})
	require.True(t, model.IsGuardRailViolationError(err), "got %v", err)

	// Narrowing further is always allowed.
	narrowed := model.ContentFilter{}
	out, err := svc.UpdatePersona(ctx, u.UserID, child.PersonaID, model.PersonaPatch{ContentFilter: &narrowed})
	require.NoError(t, err)
	require.False(t, out.ContentFilter.AllowPersonalInfo)
}

func TestUpdatePersona_KindAndParentImmutable(t *testing.T) {
	st := newTestStore(t)
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)

	kind := model.KindPublic
	_, err := svc.UpdatePersona(context.Background(), u.UserID, main.PersonaID, model.PersonaPatch{Kind: &kind})
	require.True(t, model.IsImmutablePersonaError(err))

	parent := "some-other-persona"
	_, err = svc.UpdatePersona(context.Background(), u.UserID, main.PersonaID, model.PersonaPatch{ParentID: &parent})
	require.True(t, model.IsImmutablePersonaError(err))
}

func TestDeletePersona(t *testing.T) {
	st := newTestStore(t)
	u, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	ctx := context.Background()

	err := svc.DeletePersona(ctx, u.UserID, main.PersonaID)
	require.True(t, model.IsImmutablePersonaError(err), "main persona must not be deletable, got %v", err)

	child, err := svc.CreatePersona(ctx, CreatePersonaRequest{
		OwnerUserID:     u.UserID,
		Kind:            model.KindChild,
		ParentPersonaID: &main.PersonaID,
		Name:            "Disposable",
		PrivacyLevel:    model.PrivacyPrivate,
	})
	require.NoError(t, err)

	// Another user cannot delete it and cannot learn it exists.
	other, _ := registerUser(t, st, "b@example.com")
	err = svc.DeletePersona(ctx, other.UserID, child.PersonaID)
	require.True(t, model.IsNotFoundError(err))

	require.NoError(t, svc.DeletePersona(ctx, u.UserID, child.PersonaID))
	_, err = svc.GetPersona(ctx, child.PersonaID)
	require.True(t, model.IsNotFoundError(err))
}

func TestRecordInteraction(t *testing.T) {
	st := newTestStore(t)
	_, main := registerUser(t, st, "a@example.com")
	svc := NewPersonaService(st)
	ctx := context.Background()

	require.NoError(t, svc.RecordInteraction(ctx, main.PersonaID))
	got, err := svc.GetPersona(ctx, main.PersonaID)
	require.NoError(t, err)
	require.Equal(t, 1, got.InteractionCount)

	err = svc.RecordInteraction(ctx, "missing")
	require.True(t, model.IsNotFoundError(err))
}
