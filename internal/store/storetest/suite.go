// Package storetest holds a driver-agnostic compliance suite. Both the
// sqlite and postgres adapters run it so behavior stays aligned.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// Factory returns a fresh store for one test. Implementations may share a
// database; the suite uses random identifiers throughout.
type Factory func(t *testing.T) store.Store

// Run executes the full compliance suite against the given factory.
func Run(t *testing.T, factory Factory) {
	t.Run("UsersCreateAndGet", func(t *testing.T) { testUsersCreateAndGet(t, factory) })
	t.Run("OneMainPersonaPerOwner", func(t *testing.T) { testOneMainPersonaPerOwner(t, factory) })
	t.Run("PersonaUpdateAndList", func(t *testing.T) { testPersonaUpdateAndList(t, factory) })
	t.Run("PersonaDeleteCascades", func(t *testing.T) { testPersonaDeleteCascades(t, factory) })
	t.Run("RecordInteraction", func(t *testing.T) { testRecordInteraction(t, factory) })
	t.Run("TraitOrderingAndExpiry", func(t *testing.T) { testTraitOrderingAndExpiry(t, factory) })
	t.Run("QuestionBanksSeeded", func(t *testing.T) { testQuestionBanksSeeded(t, factory) })
	t.Run("OneInProgressInterview", func(t *testing.T) { testOneInProgressInterview(t, factory) })
	t.Run("RecordAnswerReplacesTraits", func(t *testing.T) { testRecordAnswerReplacesTraits(t, factory) })
	t.Run("ConnectionsUpsert", func(t *testing.T) { testConnectionsUpsert(t, factory) })
}

func newUser() *model.User {
	return &model.User{
		UserID:   uuid.New().String(),
		Email:    uuid.New().String() + "@example.com",
		TimeZone: "UTC",
	}
}

func newMain(ownerID string) *model.Persona {
	return &model.Persona{
		OwnerUserID:  ownerID,
		Kind:         model.KindMain,
		Name:         "Main",
		PrivacyLevel: model.PrivacyPrivate,
		ContentFilter: model.ContentFilter{
			AllowExplicit: true, AllowPersonalInfo: true, AllowSecrets: true, AllowMedia: true,
		},
	}
}

// seedUser creates a user with its main persona and returns both.
func seedUser(t *testing.T, st store.Store) (*model.User, *model.Persona) {
	t.Helper()
	in := newUser()
	u, main, err := st.Users().CreateWithMainPersona(context.Background(), in, newMain(in.UserID))
	require.NoError(t, err)
	return u, main
}

func testUsersCreateAndGet(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	in := newUser()
	main := newMain(in.UserID)
	u, p, err := st.Users().CreateWithMainPersona(ctx, in, main)
	require.NoError(t, err)
	require.Equal(t, in.UserID, u.UserID)
	require.NotEmpty(t, p.PersonaID)
	require.Equal(t, model.KindMain, p.Kind)
	require.False(t, u.CreationTime.IsZero())

	got, err := st.Users().Get(ctx, in.UserID)
	require.NoError(t, err)
	require.Equal(t, in.Email, got.Email)

	_, err = st.Users().Get(ctx, uuid.New().String())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func testOneMainPersonaPerOwner(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	u, _ := seedUser(t, st)

	_, err := st.Personas().CreateWithSnapshot(ctx, newMain(u.UserID), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrConflict), "second main persona must surface ErrConflict, got %v", err)
}

func testPersonaUpdateAndList(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	u, main := seedUser(t, st)

	child := &model.Persona{
		OwnerUserID:     u.UserID,
		Kind:            model.KindPublic,
		ParentPersonaID: &main.PersonaID,
		Name:            "Public",
		PrivacyLevel:    model.PrivacyPublic,
		GuardRails:      model.GuardRails{BlockedTopics: []string{"politics"}},
	}
	created, err := st.Personas().CreateWithSnapshot(ctx, child, nil)
	require.NoError(t, err)

	created.Name = "Public v2"
	created.PrivacyLevel = model.PrivacyFriends
	updated, err := st.Personas().Update(ctx, created)
	require.NoError(t, err)
	require.Equal(t, "Public v2", updated.Name)
	require.Equal(t, model.PrivacyFriends, updated.PrivacyLevel)
	require.Equal(t, []string{"politics"}, updated.GuardRails.BlockedTopics)

	all, err := st.Personas().List(ctx, u.UserID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	missing := *created
	missing.PersonaID = uuid.New().String()
	_, err = st.Personas().Update(ctx, &missing)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func testPersonaDeleteCascades(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	u, main := seedUser(t, st)

	child, err := st.Personas().CreateWithSnapshot(ctx, &model.Persona{
		OwnerUserID: u.UserID, Kind: model.KindChild, ParentPersonaID: &main.PersonaID,
		Name: "Gaming", PrivacyLevel: model.PrivacyFriends,
	}, nil)
	require.NoError(t, err)

	_, err = st.Traits().Create(ctx, &model.TraitEntry{
		PersonaID: child.PersonaID, Sensitivity: model.SensitivityPublic,
		Topic: "games", Content: "loves roguelikes", Confidence: 0.8,
	})
	require.NoError(t, err)

	// A completed interview survives deletion with its persona reference nulled.
	done, err := st.Interviews().Create(ctx, &model.Interview{
		PersonaID: child.PersonaID, SessionType: model.SessionInitial, Status: model.InterviewCompleted,
	})
	require.NoError(t, err)

	// An in-progress one is removed with the persona.
	open, err := st.Interviews().Create(ctx, &model.Interview{
		PersonaID: child.PersonaID, SessionType: model.SessionFollowup, Status: model.InterviewInProgress,
	})
	require.NoError(t, err)

	require.NoError(t, st.Personas().Delete(ctx, child.PersonaID))

	_, err = st.Personas().Get(ctx, child.PersonaID)
	require.ErrorIs(t, err, model.ErrNotFound)

	entries, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: child.PersonaID})
	require.NoError(t, err)
	require.Empty(t, entries)

	kept, err := st.Interviews().Get(ctx, done.InterviewID)
	require.NoError(t, err)
	require.Empty(t, kept.PersonaID)

	_, err = st.Interviews().Get(ctx, open.InterviewID)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.ErrorIs(t, st.Personas().Delete(ctx, child.PersonaID), model.ErrNotFound)
}

func testRecordInteraction(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	_, main := seedUser(t, st)

	require.NoError(t, st.Personas().RecordInteraction(ctx, main.PersonaID))
	require.NoError(t, st.Personas().RecordInteraction(ctx, main.PersonaID))

	got, err := st.Personas().Get(ctx, main.PersonaID)
	require.NoError(t, err)
	require.Equal(t, 2, got.InteractionCount)
	require.NotNil(t, got.LastInteractionAt)

	require.ErrorIs(t, st.Personas().RecordInteraction(ctx, uuid.New().String()), model.ErrNotFound)
}

func testTraitOrderingAndExpiry(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	_, main := seedUser(t, st)

	mk := func(topic string, confidence float64, expires *time.Time) *model.TraitEntry {
		e, err := st.Traits().Create(ctx, &model.TraitEntry{
			PersonaID: main.PersonaID, Sensitivity: model.SensitivityPublic,
			Topic: topic, Content: "c", Confidence: confidence, ExpiresAt: expires,
		})
		require.NoError(t, err)
		// Distinct creation times keep the recency tiebreak deterministic.
		time.Sleep(5 * time.Millisecond)
		return e
	}

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	mk("low", 0.2, nil)
	mk("high", 0.9, nil)
	older := mk("mid-old", 0.5, nil)
	newer := mk("mid-new", 0.5, nil)
	mk("gone", 0.99, &past)
	mk("fresh", 0.95, &future)

	entries, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID})
	require.NoError(t, err)
	topics := make([]string, 0, len(entries))
	for _, e := range entries {
		topics = append(topics, e.Topic)
	}
	require.Equal(t, []string{"fresh", "high", "mid-new", "mid-old", "low"}, topics)

	// The tiebreak puts the newer of the equal-confidence pair first.
	require.True(t, newer.CreationTime.After(older.CreationTime))

	withExpired, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID, IncludeExpired: true})
	require.NoError(t, err)
	require.Len(t, withExpired, 6)

	limited, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, "fresh", limited[0].Topic)

	got, err := st.Traits().GetByID(ctx, main.PersonaID, entries[0].EntryID)
	require.NoError(t, err)
	require.Equal(t, "fresh", got.Topic)
}

func testQuestionBanksSeeded(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()

	for _, sess := range []model.SessionType{model.SessionInitial, model.SessionFollowup, model.SessionTopical} {
		qs, err := st.Questions().ListBySession(ctx, sess)
		require.NoError(t, err)
		require.NotEmpty(t, qs, "bank %s must be seeded", sess)
		for i, q := range qs {
			require.Equal(t, i, q.Order, "bank %s must come back in order", sess)
		}
	}

	// Put upserts by question id.
	q, err := st.Questions().Put(ctx, &model.InterviewQuestion{
		QuestionID:  "initial-0",
		SessionType: model.SessionInitial,
		Order:       0,
		Kind:        model.QuestionSimple,
		Prompt:      "Tell me about yourself.",
	})
	require.NoError(t, err)
	require.Equal(t, "initial-0", q.QuestionID)

	qs, err := st.Questions().ListBySession(ctx, model.SessionInitial)
	require.NoError(t, err)
	require.Equal(t, "Tell me about yourself.", qs[0].Prompt)
}

func testOneInProgressInterview(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	_, main := seedUser(t, st)

	first, err := st.Interviews().Create(ctx, &model.Interview{
		PersonaID: main.PersonaID, SessionType: model.SessionInitial, Status: model.InterviewInProgress,
	})
	require.NoError(t, err)

	_, err = st.Interviews().Create(ctx, &model.Interview{
		PersonaID: main.PersonaID, SessionType: model.SessionTopical, Status: model.InterviewInProgress,
	})
	require.True(t, errors.Is(err, model.ErrConflict), "second in-progress interview must surface ErrConflict, got %v", err)

	// Closing the first frees the slot.
	first.Status = model.InterviewAbandoned
	now := time.Now().UTC()
	first.CompletedAt = &now
	require.NoError(t, st.Interviews().UpdateStatus(ctx, first))

	_, err = st.Interviews().Create(ctx, &model.Interview{
		PersonaID: main.PersonaID, SessionType: model.SessionTopical, Status: model.InterviewInProgress,
	})
	require.NoError(t, err)

	ivs, err := st.Interviews().ListByPersona(ctx, main.PersonaID)
	require.NoError(t, err)
	require.Len(t, ivs, 2)
}

func testRecordAnswerReplacesTraits(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	_, main := seedUser(t, st)

	iv, err := st.Interviews().Create(ctx, &model.Interview{
		PersonaID: main.PersonaID, SessionType: model.SessionInitial, Status: model.InterviewInProgress,
	})
	require.NoError(t, err)

	qs, err := st.Questions().ListBySession(ctx, model.SessionInitial)
	require.NoError(t, err)
	qid := qs[0].QuestionID

	trait := func(topic string) *model.TraitEntry {
		return &model.TraitEntry{
			PersonaID: main.PersonaID, Sensitivity: model.SensitivityPublic,
			Topic: topic, Content: "c", Confidence: 0.7,
			SourceInterviewID: &iv.InterviewID, SourceQuestionID: &qid,
		}
	}

	iv.CurrentQuestionIndex = 1
	err = st.Interviews().RecordAnswer(ctx, store.RecordAnswerRequest{
		Interview: iv,
		Response: &model.InterviewResponse{
			InterviewID: iv.InterviewID, QuestionID: qid, AnswerText: "first answer",
		},
		Traits: []*model.TraitEntry{trait("books"), trait("music")},
	})
	require.NoError(t, err)

	entries, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Re-answering the same question swaps the derived traits wholesale.
	err = st.Interviews().RecordAnswer(ctx, store.RecordAnswerRequest{
		Interview: iv,
		Response: &model.InterviewResponse{
			InterviewID: iv.InterviewID, QuestionID: qid, AnswerText: "second answer",
		},
		Traits: []*model.TraitEntry{trait("travel")},
	})
	require.NoError(t, err)

	entries, err = st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "travel", entries[0].Topic)

	resp, err := st.Responses().Get(ctx, iv.InterviewID, qid)
	require.NoError(t, err)
	require.Equal(t, "second answer", resp.AnswerText)

	all, err := st.Responses().ListByInterview(ctx, iv.InterviewID)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got, err := st.Interviews().Get(ctx, iv.InterviewID)
	require.NoError(t, err)
	require.Equal(t, 1, got.CurrentQuestionIndex)
}

func testConnectionsUpsert(t *testing.T, factory Factory) {
	st := factory(t)
	ctx := context.Background()
	_, main := seedUser(t, st)

	requester := uuid.New().String()
	_, err := st.Connections().Get(ctx, requester, main.PersonaID)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = st.Connections().Upsert(ctx, &model.UserConnection{
		RequesterUserID: requester, TargetPersonaID: main.PersonaID, Relationship: model.RelationFollower,
	})
	require.NoError(t, err)

	_, err = st.Connections().Upsert(ctx, &model.UserConnection{
		RequesterUserID: requester, TargetPersonaID: main.PersonaID, Relationship: model.RelationFriend,
	})
	require.NoError(t, err)

	got, err := st.Connections().Get(ctx, requester, main.PersonaID)
	require.NoError(t, err)
	require.Equal(t, model.RelationFriend, got.Relationship)
}
