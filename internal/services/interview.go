package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/perscribe/persona-backend/internal/extractor"
	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// InterviewService runs structured learning interviews. Questions are served
// in bank order; answers flow through the trait extractor and accepted
// candidates become trait entries on the persona.
type InterviewService struct {
	store     store.Store
	extractor extractor.TraitExtractor
	threshold float64
	log       zerolog.Logger
}

// NewInterviewService wires the interview engine. Candidates scoring below
// threshold are discarded.
func NewInterviewService(s store.Store, ex extractor.TraitExtractor, threshold float64, log zerolog.Logger) *InterviewService {
	if ex == nil {
		ex = extractor.Noop{}
	}
	return &InterviewService{store: s, extractor: ex, threshold: threshold, log: log}
}

// StartInterview opens an in-progress interview for the persona. A persona
// runs at most one interview at a time.
func (s *InterviewService) StartInterview(ctx context.Context, personaID string, st model.SessionType) (*model.Interview, error) {
	if !st.Valid() {
		return nil, model.NewValidationError("sessionType", fmt.Sprintf("unknown session type %q", st))
	}
	if _, err := s.store.Personas().Get(ctx, personaID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("persona", personaID)
		}
		return nil, err
	}
	questions, err := s.store.Questions().ListBySession(ctx, st)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, model.NewValidationError("sessionType", fmt.Sprintf("no questions configured for session type %q", st))
	}

	iv := &model.Interview{
		PersonaID:            personaID,
		SessionType:          st,
		Status:               model.InterviewInProgress,
		CurrentQuestionIndex: 0,
	}
	created, err := s.store.Interviews().Create(ctx, iv)
	if errors.Is(err, model.ErrConflict) {
		return nil, model.InterviewInProgressError{PersonaID: personaID}
	}
	return created, err
}

func (s *InterviewService) GetInterview(ctx context.Context, interviewID string) (*model.Interview, error) {
	iv, err := s.store.Interviews().Get(ctx, interviewID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewNotFoundError("interview", interviewID)
		}
		return nil, err
	}
	return iv, nil
}

func (s *InterviewService) ListInterviews(ctx context.Context, personaID string) ([]*model.Interview, error) {
	return s.store.Interviews().ListByPersona(ctx, personaID)
}

// ListQuestions returns the ordered bank for a session type.
func (s *InterviewService) ListQuestions(ctx context.Context, st model.SessionType) ([]*model.InterviewQuestion, error) {
	if !st.Valid() {
		return nil, model.NewValidationError("sessionType", fmt.Sprintf("unknown session type %q", st))
	}
	return s.store.Questions().ListBySession(ctx, st)
}

// CurrentQuestion returns the question the interview is waiting on, or nil
// when the interview is not in progress.
func (s *InterviewService) CurrentQuestion(ctx context.Context, interviewID string) (*model.InterviewQuestion, error) {
	iv, err := s.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if iv.Status != model.InterviewInProgress {
		return nil, nil
	}
	questions, err := s.store.Questions().ListBySession(ctx, iv.SessionType)
	if err != nil {
		return nil, err
	}
	if iv.CurrentQuestionIndex >= len(questions) {
		return nil, nil
	}
	return questions[iv.CurrentQuestionIndex], nil
}

// AnswerRequest carries one answer to one interview question.
type AnswerRequest struct {
	InterviewID string
	QuestionID  string
	AnswerText  string
	MediaRefs   []string
}

// AnswerResult reports what an answer produced: the interview after cursor
// advancement and the trait entries accepted from the extractor.
type AnswerResult struct {
	Interview *model.Interview
	Accepted  []*model.TraitEntry
}

// AnswerQuestion records an answer. Questions must be answered in order; any
// already-answered question may be answered again, which replaces the
// response and the trait entries derived from it. When the last question is
// answered the interview completes.
func (s *InterviewService) AnswerQuestion(ctx context.Context, req AnswerRequest) (*AnswerResult, error) {
	if req.AnswerText == "" {
		return nil, model.NewValidationError("answerText", "must not be empty")
	}
	iv, err := s.GetInterview(ctx, req.InterviewID)
	if err != nil {
		return nil, err
	}
	if iv.Status != model.InterviewInProgress {
		return nil, model.InvalidQuestionError{InterviewID: iv.InterviewID, QuestionID: req.QuestionID,
			Message: fmt.Sprintf("interview is %s", iv.Status)}
	}
	questions, err := s.store.Questions().ListBySession(ctx, iv.SessionType)
	if err != nil {
		return nil, err
	}
	pos := -1
	var q *model.InterviewQuestion
	for i, cand := range questions {
		if cand.QuestionID == req.QuestionID {
			pos, q = i, cand
			break
		}
	}
	if pos < 0 {
		return nil, model.InvalidQuestionError{InterviewID: iv.InterviewID, QuestionID: req.QuestionID,
			Message: "question is not part of this session"}
	}
	if pos > iv.CurrentQuestionIndex {
		return nil, model.InvalidQuestionError{InterviewID: iv.InterviewID, QuestionID: req.QuestionID,
			Message: fmt.Sprintf("question %d answered before question %d", pos, iv.CurrentQuestionIndex)}
	}
	if q.ExpectsMedia && len(req.MediaRefs) == 0 {
		return nil, model.MediaRequiredError{QuestionID: q.QuestionID}
	}

	accepted := s.extractTraits(ctx, iv, q, req)

	if pos == iv.CurrentQuestionIndex {
		iv.CurrentQuestionIndex++
	}
	if iv.CurrentQuestionIndex == len(questions) {
		now := time.Now().UTC()
		iv.Status = model.InterviewCompleted
		iv.CompletedAt = &now
	}

	rec := store.RecordAnswerRequest{
		Interview: iv,
		Response: &model.InterviewResponse{
			InterviewID: iv.InterviewID,
			QuestionID:  q.QuestionID,
			AnswerText:  req.AnswerText,
			MediaRefs:   req.MediaRefs,
		},
		Traits: accepted,
	}
	if err := s.store.Interviews().RecordAnswer(ctx, rec); err != nil {
		return nil, err
	}
	return &AnswerResult{Interview: iv, Accepted: accepted}, nil
}

// extractTraits runs the scorer and keeps candidates at or above the
// acceptance threshold. A scorer failure loses the candidates, never the
// answer.
func (s *InterviewService) extractTraits(ctx context.Context, iv *model.Interview, q *model.InterviewQuestion, req AnswerRequest) []*model.TraitEntry {
	candidates, err := s.extractor.Extract(ctx, extractor.ExtractRequest{
		PersonaID:      iv.PersonaID,
		QuestionPrompt: q.Prompt,
		AnswerText:     req.AnswerText,
		MediaRefs:      req.MediaRefs,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("interview_id", iv.InterviewID).
			Str("question_id", q.QuestionID).
			Msg("trait extraction failed; answer recorded without traits")
		return nil
	}
	var out []*model.TraitEntry
	for _, c := range candidates {
		if c.Confidence < s.threshold {
			continue
		}
		if !c.Sensitivity.Valid() || c.Topic == "" || c.Content == "" {
			s.log.Debug().Str("interview_id", iv.InterviewID).Str("topic", c.Topic).
				Msg("dropping malformed trait candidate")
			continue
		}
		out = append(out, &model.TraitEntry{
			PersonaID:         iv.PersonaID,
			Sensitivity:       c.Sensitivity,
			Topic:             c.Topic,
			Content:           c.Content,
			Confidence:        c.Confidence,
			MediaRefs:         req.MediaRefs,
			SourceInterviewID: &iv.InterviewID,
			SourceQuestionID:  &q.QuestionID,
		})
	}
	return out
}

// AbandonInterview closes an in-progress interview without completing it.
// Traits already derived from answered questions are kept.
func (s *InterviewService) AbandonInterview(ctx context.Context, interviewID string) (*model.Interview, error) {
	iv, err := s.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if iv.Status != model.InterviewInProgress {
		return nil, model.NewValidationError("status", fmt.Sprintf("cannot abandon an interview that is %s", iv.Status))
	}
	now := time.Now().UTC()
	iv.Status = model.InterviewAbandoned
	iv.CompletedAt = &now
	if err := s.store.Interviews().UpdateStatus(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}
