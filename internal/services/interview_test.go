package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/perscribe/persona-backend/internal/extractor"
	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// scriptedExtractor returns a fixed script of results, one per call.
type scriptedExtractor struct {
	candidates []model.TraitCandidate
	err        error
	calls      int
	lastReq    extractor.ExtractRequest
}

func (s *scriptedExtractor) Extract(ctx context.Context, req extractor.ExtractRequest) ([]model.TraitCandidate, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func newInterviewFixture(t *testing.T) (store.Store, *scriptedExtractor, *InterviewService, *model.Persona) {
	t.Helper()
	st := newTestStore(t)
	_, main := registerUser(t, st, "a@example.com")
	ex := &scriptedExtractor{}
	svc := NewInterviewService(st, ex, 0.5, zerolog.Nop())
	return st, ex, svc, main
}

func TestStartInterview(t *testing.T) {
	_, _, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)
	require.Equal(t, model.InterviewInProgress, iv.Status)
	require.Equal(t, 0, iv.CurrentQuestionIndex)

	q, err := svc.CurrentQuestion(ctx, iv.InterviewID)
	require.NoError(t, err)
	require.Equal(t, 0, q.Order)

	// A persona runs one interview at a time, of any session type.
	_, err = svc.StartInterview(ctx, main.PersonaID, model.SessionTopical)
	require.True(t, model.IsInterviewInProgressError(err), "got %v", err)
}

func TestStartInterview_Validation(t *testing.T) {
	_, _, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	_, err := svc.StartInterview(ctx, main.PersonaID, model.SessionType("speedrun"))
	require.True(t, model.IsValidationError(err))

	_, err = svc.StartInterview(ctx, "missing", model.SessionInitial)
	require.True(t, model.IsNotFoundError(err))
}

func TestAnswerQuestion_AcceptsByThreshold(t *testing.T) {
	st, ex, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionInitial)
	require.NoError(t, err)

	ex.candidates = []model.TraitCandidate{
		{Topic: "music", Content: "plays bass", Sensitivity: model.SensitivityPublic, Confidence: 0.9},
		{Topic: "noise", Content: "low signal", Sensitivity: model.SensitivityPublic, Confidence: 0.4},
		{Topic: "odd", Content: "bad class", Sensitivity: model.Sensitivity("weird"), Confidence: 0.8},
		{Topic: "", Content: "no topic", Sensitivity: model.SensitivityPublic, Confidence: 0.8},
	}

	res, err := svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID,
		QuestionID:  qs[0].QuestionID,
		AnswerText:  "I play bass in a band.",
	})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1, "below-threshold and malformed candidates are dropped")
	require.Equal(t, "music", res.Accepted[0].Topic)
	require.Equal(t, 1, res.Interview.CurrentQuestionIndex)
	require.Equal(t, qs[0].Prompt, ex.lastReq.QuestionPrompt)

	entries, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].SourceInterviewID)
	require.Equal(t, iv.InterviewID, *entries[0].SourceInterviewID)
	require.Equal(t, qs[0].QuestionID, *entries[0].SourceQuestionID)
}

func TestAnswerQuestion_OrderingEnforced(t *testing.T) {
	_, _, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionInitial)
	require.NoError(t, err)

	// Skipping ahead is refused.
	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[2].QuestionID, AnswerText: "skipping",
	})
	require.True(t, model.IsInvalidQuestionError(err), "got %v", err)

	// A question from another bank is refused.
	topical, err := svc.ListQuestions(ctx, model.SessionTopical)
	require.NoError(t, err)
	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: topical[0].QuestionID, AnswerText: "wrong bank",
	})
	require.True(t, model.IsInvalidQuestionError(err))

	// Answering in order advances the cursor.
	res, err := svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "first",
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Interview.CurrentQuestionIndex)

	// Re-answering an earlier question is fine and does not move the cursor.
	res, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "first, revised",
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Interview.CurrentQuestionIndex)
}

func TestAnswerQuestion_ReanswerReplacesTraits(t *testing.T) {
	st, ex, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionInitial)
	require.NoError(t, err)

	ex.candidates = []model.TraitCandidate{
		{Topic: "books", Content: "reads sci-fi", Sensitivity: model.SensitivityPublic, Confidence: 0.8},
		{Topic: "coffee", Content: "espresso only", Sensitivity: model.SensitivityPublic, Confidence: 0.7},
	}
	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "v1",
	})
	require.NoError(t, err)

	ex.candidates = []model.TraitCandidate{
		{Topic: "tea", Content: "switched to tea", Sensitivity: model.SensitivityPublic, Confidence: 0.9},
	}
	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "v2",
	})
	require.NoError(t, err)

	entries, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID})
	require.NoError(t, err)
	require.Len(t, entries, 1, "re-answer must replace previously derived traits")
	require.Equal(t, "tea", entries[0].Topic)

	resp, err := st.Responses().Get(ctx, iv.InterviewID, qs[0].QuestionID)
	require.NoError(t, err)
	require.Equal(t, "v2", resp.AnswerText)
}

func TestAnswerQuestion_MediaRequired(t *testing.T) {
	_, _, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionTopical)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionTopical)
	require.NoError(t, err)

	// Advance to the media question.
	var mediaQ *model.InterviewQuestion
	for _, q := range qs {
		if q.ExpectsMedia {
			mediaQ = q
			break
		}
		_, err = svc.AnswerQuestion(ctx, AnswerRequest{
			InterviewID: iv.InterviewID, QuestionID: q.QuestionID, AnswerText: "text answer",
		})
		require.NoError(t, err)
	}
	require.NotNil(t, mediaQ, "topical bank must contain a media question")

	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: mediaQ.QuestionID, AnswerText: "no media attached",
	})
	require.True(t, model.IsMediaRequiredError(err), "got %v", err)

	res, err := svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID,
		QuestionID:  mediaQ.QuestionID,
		AnswerText:  "here it is",
		MediaRefs:   []string{"media://clip-1"},
	})
	require.NoError(t, err)
	require.Equal(t, mediaQ.Order+1, res.Interview.CurrentQuestionIndex)
}

func TestAnswerQuestion_ExtractorFailureKeepsAnswer(t *testing.T) {
	st, ex, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionInitial)
	require.NoError(t, err)

	ex.err = errors.New("scorer down")
	res, err := svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "still recorded",
	})
	require.NoError(t, err, "a scorer outage must not fail the answer")
	require.Empty(t, res.Accepted)
	require.Equal(t, 1, res.Interview.CurrentQuestionIndex)

	resp, err := st.Responses().Get(ctx, iv.InterviewID, qs[0].QuestionID)
	require.NoError(t, err)
	require.Equal(t, "still recorded", resp.AnswerText)
}

func TestAnswerQuestion_CompletesOnLastAnswer(t *testing.T) {
	_, _, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionFollowup)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionFollowup)
	require.NoError(t, err)

	var last *AnswerResult
	for _, q := range qs {
		last, err = svc.AnswerQuestion(ctx, AnswerRequest{
			InterviewID: iv.InterviewID, QuestionID: q.QuestionID, AnswerText: "answer to " + q.QuestionID,
		})
		require.NoError(t, err)
	}
	require.Equal(t, model.InterviewCompleted, last.Interview.Status)
	require.NotNil(t, last.Interview.CompletedAt)

	// No further answers once completed.
	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "too late",
	})
	require.True(t, model.IsInvalidQuestionError(err))

	q, err := svc.CurrentQuestion(ctx, iv.InterviewID)
	require.NoError(t, err)
	require.Nil(t, q)

	// The slot frees up for the next session.
	_, err = svc.StartInterview(ctx, main.PersonaID, model.SessionTopical)
	require.NoError(t, err)
}

func TestAbandonInterview(t *testing.T) {
	st, ex, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)
	qs, err := svc.ListQuestions(ctx, model.SessionInitial)
	require.NoError(t, err)

	ex.candidates = []model.TraitCandidate{
		{Topic: "hiking", Content: "weekend hiker", Sensitivity: model.SensitivityPublic, Confidence: 0.9},
	}
	_, err = svc.AnswerQuestion(ctx, AnswerRequest{
		InterviewID: iv.InterviewID, QuestionID: qs[0].QuestionID, AnswerText: "answered",
	})
	require.NoError(t, err)

	out, err := svc.AbandonInterview(ctx, iv.InterviewID)
	require.NoError(t, err)
	require.Equal(t, model.InterviewAbandoned, out.Status)
	require.NotNil(t, out.CompletedAt)

	// Traits learned before abandonment are kept.
	entries, err := st.Traits().List(ctx, model.ListTraitsRequest{PersonaID: main.PersonaID})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.AbandonInterview(ctx, iv.InterviewID)
	require.True(t, model.IsValidationError(err), "abandoning twice must fail, got %v", err)
}

func TestAnswerQuestion_Validation(t *testing.T) {
	_, _, svc, main := newInterviewFixture(t)
	ctx := context.Background()

	iv, err := svc.StartInterview(ctx, main.PersonaID, model.SessionInitial)
	require.NoError(t, err)

	_, err = svc.AnswerQuestion(ctx, AnswerRequest{InterviewID: iv.InterviewID, QuestionID: "initial-0"})
	require.True(t, model.IsValidationError(err), "empty answer text")

	_, err = svc.AnswerQuestion(ctx, AnswerRequest{InterviewID: "missing", QuestionID: "initial-0", AnswerText: "x"})
	require.True(t, model.IsNotFoundError(err))

	_, err = svc.AnswerQuestion(ctx, AnswerRequest{InterviewID: iv.InterviewID, QuestionID: "no-such-question", AnswerText: "x"})
	require.True(t, model.IsInvalidQuestionError(err))
}
