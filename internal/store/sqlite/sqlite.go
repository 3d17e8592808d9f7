package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perscribe/persona-backend/internal/model"
	"github.com/perscribe/persona-backend/internal/store"
)

// New opens (or creates) the database at path, applies the schema, and
// returns a store backed by it.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := ApplySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB wraps an existing connection; the caller owns schema setup.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users             { return &users{db: s.db} }
func (s *sqliteStore) Personas() store.Personas       { return &personas{db: s.db} }
func (s *sqliteStore) Traits() store.Traits           { return &traits{db: s.db} }
func (s *sqliteStore) Questions() store.Questions     { return &questions{db: s.db} }
func (s *sqliteStore) Interviews() store.Interviews   { return &interviews{db: s.db} }
func (s *sqliteStore) Responses() store.Responses     { return &responses{db: s.db} }
func (s *sqliteStore) Connections() store.Connections { return &connections{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func wrapConflict(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return err
}

func mapNoRows(err error) error {
	if err == sql.ErrNoRows {
		return model.ErrNotFound
	}
	return err
}

func marshalJSON(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func marshalRefs(refs []string) (interface{}, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	return marshalJSON(refs)
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) CreateWithMainPersona(ctx context.Context, m *model.User, main *model.Persona) (*model.User, *model.Persona, error) {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO users (user_id, email, display_name, time_zone, status, creation_time)
        VALUES (?,?,?,?,?,?)`,
		m.UserID, m.Email, m.DisplayName, m.TimeZone, "ACTIVE", now); err != nil {
		return nil, nil, wrapConflict(err)
	}
	createdMain, err := insertPersona(ctx, tx, main, now)
	if err != nil {
		return nil, nil, wrapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	out := *m
	out.Status = "ACTIVE"
	out.CreationTime = now
	return &out, createdMain, nil
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT user_id, email, display_name, time_zone, status, creation_time, last_active_time
        FROM users WHERE user_id=?`, userID)
	var last sql.NullTime
	if err := row.Scan(&out.UserID, &out.Email, &out.DisplayName, &out.TimeZone, &out.Status, &out.CreationTime, &last); err != nil {
		return nil, mapNoRows(err)
	}
	if last.Valid {
		out.LastActive = &last.Time
	}
	return &out, nil
}

// --- Personas ---

type personas struct{ db *sql.DB }

func insertPersona(ctx context.Context, tx *sql.Tx, p *model.Persona, now time.Time) (*model.Persona, error) {
	id := p.PersonaID
	if id == "" {
		id = uuid.New().String()
	}
	rails, err := marshalJSON(p.GuardRails)
	if err != nil {
		return nil, err
	}
	filter, err := marshalJSON(p.ContentFilter)
	if err != nil {
		return nil, err
	}
	var monet interface{}
	if p.Monetization != nil {
		if monet, err = marshalJSON(p.Monetization); err != nil {
			return nil, err
		}
	}
	status := p.Status
	if status == "" {
		status = "active"
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO personas (persona_id, owner_user_id, kind, parent_persona_id, name, description,
                              privacy_level, guard_rails, content_filter, monetization, status,
                              interaction_count, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,0,?)`,
		id, p.OwnerUserID, string(p.Kind), p.ParentPersonaID, p.Name, p.Description,
		string(p.PrivacyLevel), rails, filter, monet, status, now); err != nil {
		return nil, err
	}
	out := *p
	out.PersonaID = id
	out.Status = status
	out.InteractionCount = 0
	out.CreationTime = now
	return &out, nil
}

func insertTrait(ctx context.Context, tx *sql.Tx, e *model.TraitEntry, now time.Time) (*model.TraitEntry, error) {
	id := e.EntryID
	if id == "" {
		id = uuid.New().String()
	}
	refs, err := marshalRefs(e.MediaRefs)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO trait_entries (entry_id, persona_id, sensitivity, topic, content, confidence,
                                   media_refs, source_interview_id, source_question_id,
                                   inherited_from, creation_time, expires_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, e.PersonaID, string(e.Sensitivity), e.Topic, e.Content, e.Confidence,
		refs, e.SourceInterviewID, e.SourceQuestionID, e.InheritedFrom, now, e.ExpiresAt); err != nil {
		return nil, err
	}
	out := *e
	out.EntryID = id
	out.CreationTime = now
	return &out, nil
}

func (p *personas) CreateWithSnapshot(ctx context.Context, mp *model.Persona, snapshot []*model.TraitEntry) (*model.Persona, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	created, err := insertPersona(ctx, tx, mp, now)
	if err != nil {
		return nil, wrapConflict(err)
	}
	for _, e := range snapshot {
		copy := *e
		copy.EntryID = ""
		copy.PersonaID = created.PersonaID
		if _, err := insertTrait(ctx, tx, &copy, now); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

const personaColumns = `persona_id, owner_user_id, kind, parent_persona_id, name, description,
       privacy_level, guard_rails, content_filter, monetization, status,
       interaction_count, last_interaction_time, creation_time`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanPersona(row rowScanner) (*model.Persona, error) {
	var out model.Persona
	var kind, privacy, rails, filter string
	var monet sql.NullString
	var lastInteraction sql.NullTime
	if err := row.Scan(&out.PersonaID, &out.OwnerUserID, &kind, &out.ParentPersonaID,
		&out.Name, &out.Description, &privacy, &rails, &filter, &monet, &out.Status,
		&out.InteractionCount, &lastInteraction, &out.CreationTime); err != nil {
		return nil, mapNoRows(err)
	}
	out.Kind = model.PersonaKind(kind)
	out.PrivacyLevel = model.PrivacyLevel(privacy)
	if err := json.Unmarshal([]byte(rails), &out.GuardRails); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(filter), &out.ContentFilter); err != nil {
		return nil, err
	}
	if monet.Valid {
		var m model.Monetization
		if err := json.Unmarshal([]byte(monet.String), &m); err != nil {
			return nil, err
		}
		out.Monetization = &m
	}
	if lastInteraction.Valid {
		out.LastInteractionAt = &lastInteraction.Time
	}
	return &out, nil
}

func (p *personas) Get(ctx context.Context, personaID string) (*model.Persona, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE persona_id=?`, personaID)
	return scanPersona(row)
}

func (p *personas) List(ctx context.Context, ownerUserID string) ([]*model.Persona, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE owner_user_id=? ORDER BY creation_time ASC`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Persona
	for rows.Next() {
		mp, err := scanPersona(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mp)
	}
	return out, rows.Err()
}

func (p *personas) Update(ctx context.Context, mp *model.Persona) (*model.Persona, error) {
	rails, err := marshalJSON(mp.GuardRails)
	if err != nil {
		return nil, err
	}
	filter, err := marshalJSON(mp.ContentFilter)
	if err != nil {
		return nil, err
	}
	var monet interface{}
	if mp.Monetization != nil {
		if monet, err = marshalJSON(mp.Monetization); err != nil {
			return nil, err
		}
	}
	res, err := p.db.ExecContext(ctx, `
        UPDATE personas
        SET name=?, description=?, privacy_level=?, guard_rails=?, content_filter=?,
            monetization=?, status=?
        WHERE persona_id=?`,
		mp.Name, mp.Description, string(mp.PrivacyLevel), rails, filter, monet, mp.Status, mp.PersonaID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return p.Get(ctx, mp.PersonaID)
}

func (p *personas) Delete(ctx context.Context, personaID string) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Completed and abandoned interviews are retained for audit with the
	// persona reference nulled; everything else cascades.
	if _, err := tx.ExecContext(ctx,
		`UPDATE interviews SET persona_id=NULL WHERE persona_id=? AND status IN ('completed','abandoned')`,
		personaID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        DELETE FROM interview_responses WHERE interview_id IN
            (SELECT interview_id FROM interviews WHERE persona_id=?)`, personaID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM interviews WHERE persona_id=?`, personaID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trait_entries WHERE persona_id=?`, personaID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_connections WHERE target_persona_id=?`, personaID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM personas WHERE persona_id=?`, personaID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return tx.Commit()
}

func (p *personas) RecordInteraction(ctx context.Context, personaID string) error {
	res, err := p.db.ExecContext(ctx, `
        UPDATE personas SET interaction_count=interaction_count+1, last_interaction_time=?
        WHERE persona_id=?`, time.Now().UTC(), personaID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Traits ---

type traits struct{ db *sql.DB }

func (t *traits) Create(ctx context.Context, e *model.TraitEntry) (*model.TraitEntry, error) {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	created, err := insertTrait(ctx, tx, e, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

const traitColumns = `entry_id, persona_id, sensitivity, topic, content, confidence,
       media_refs, source_interview_id, source_question_id, inherited_from,
       creation_time, expires_at`

func scanTrait(row rowScanner) (*model.TraitEntry, error) {
	var out model.TraitEntry
	var sensitivity string
	var refs sql.NullString
	var expires sql.NullTime
	if err := row.Scan(&out.EntryID, &out.PersonaID, &sensitivity, &out.Topic, &out.Content,
		&out.Confidence, &refs, &out.SourceInterviewID, &out.SourceQuestionID,
		&out.InheritedFrom, &out.CreationTime, &expires); err != nil {
		return nil, mapNoRows(err)
	}
	out.Sensitivity = model.Sensitivity(sensitivity)
	if refs.Valid {
		if err := json.Unmarshal([]byte(refs.String), &out.MediaRefs); err != nil {
			return nil, err
		}
	}
	if expires.Valid {
		out.ExpiresAt = &expires.Time
	}
	return &out, nil
}

func (t *traits) List(ctx context.Context, req model.ListTraitsRequest) ([]*model.TraitEntry, error) {
	query := `SELECT ` + traitColumns + ` FROM trait_entries WHERE persona_id=?`
	args := []interface{}{req.PersonaID}
	if !req.IncludeExpired {
		query += ` AND (expires_at IS NULL OR expires_at > ?)`
		args = append(args, time.Now().UTC())
	}
	query += ` ORDER BY confidence DESC, creation_time DESC`
	if req.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, req.Limit)
	}
	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.TraitEntry
	for rows.Next() {
		e, err := scanTrait(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *traits) GetByID(ctx context.Context, personaID, entryID string) (*model.TraitEntry, error) {
	row := t.db.QueryRowContext(ctx,
		`SELECT `+traitColumns+` FROM trait_entries WHERE persona_id=? AND entry_id=?`,
		personaID, entryID)
	return scanTrait(row)
}

// --- Questions ---

type questions struct{ db *sql.DB }

func (q *questions) Put(ctx context.Context, mq *model.InterviewQuestion) (*model.InterviewQuestion, error) {
	id := mq.QuestionID
	if id == "" {
		id = uuid.New().String()
	}
	if _, err := q.db.ExecContext(ctx, `
        INSERT INTO interview_questions (question_id, session_type, ord, kind, prompt, expects_media)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT(question_id) DO UPDATE SET
            session_type=excluded.session_type, ord=excluded.ord, kind=excluded.kind,
            prompt=excluded.prompt, expects_media=excluded.expects_media`,
		id, string(mq.SessionType), mq.Order, string(mq.Kind), mq.Prompt, mq.ExpectsMedia); err != nil {
		return nil, wrapConflict(err)
	}
	out := *mq
	out.QuestionID = id
	return &out, nil
}

func (q *questions) ListBySession(ctx context.Context, st model.SessionType) ([]*model.InterviewQuestion, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT question_id, session_type, ord, kind, prompt, expects_media
        FROM interview_questions WHERE session_type=? ORDER BY ord ASC`, string(st))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.InterviewQuestion
	for rows.Next() {
		var mq model.InterviewQuestion
		var sessionType, kind string
		if err := rows.Scan(&mq.QuestionID, &sessionType, &mq.Order, &kind, &mq.Prompt, &mq.ExpectsMedia); err != nil {
			return nil, err
		}
		mq.SessionType = model.SessionType(sessionType)
		mq.Kind = model.QuestionKind(kind)
		out = append(out, &mq)
	}
	return out, rows.Err()
}

// --- Interviews ---

type interviews struct{ db *sql.DB }

func (i *interviews) Create(ctx context.Context, iv *model.Interview) (*model.Interview, error) {
	id := iv.InterviewID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	if _, err := i.db.ExecContext(ctx, `
        INSERT INTO interviews (interview_id, persona_id, session_type, status, current_question_index, started_at)
        VALUES (?,?,?,?,?,?)`,
		id, iv.PersonaID, string(iv.SessionType), string(iv.Status), iv.CurrentQuestionIndex, now); err != nil {
		return nil, wrapConflict(err)
	}
	out := *iv
	out.InterviewID = id
	out.StartedAt = now
	return &out, nil
}

const interviewColumns = `interview_id, persona_id, session_type, status, current_question_index, started_at, completed_at`

func scanInterview(row rowScanner) (*model.Interview, error) {
	var out model.Interview
	var personaID sql.NullString
	var sessionType, status string
	var completed sql.NullTime
	if err := row.Scan(&out.InterviewID, &personaID, &sessionType, &status,
		&out.CurrentQuestionIndex, &out.StartedAt, &completed); err != nil {
		return nil, mapNoRows(err)
	}
	if personaID.Valid {
		out.PersonaID = personaID.String
	}
	out.SessionType = model.SessionType(sessionType)
	out.Status = model.InterviewStatus(status)
	if completed.Valid {
		out.CompletedAt = &completed.Time
	}
	return &out, nil
}

func (i *interviews) Get(ctx context.Context, interviewID string) (*model.Interview, error) {
	row := i.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE interview_id=?`, interviewID)
	return scanInterview(row)
}

func (i *interviews) ListByPersona(ctx context.Context, personaID string) ([]*model.Interview, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE persona_id=? ORDER BY started_at DESC`, personaID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (i *interviews) UpdateStatus(ctx context.Context, iv *model.Interview) error {
	res, err := i.db.ExecContext(ctx, `
        UPDATE interviews SET status=?, current_question_index=?, completed_at=?
        WHERE interview_id=?`,
		string(iv.Status), iv.CurrentQuestionIndex, iv.CompletedAt, iv.InterviewID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (i *interviews) RecordAnswer(ctx context.Context, req store.RecordAnswerRequest) error {
	tx, err := i.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	refs, err := marshalRefs(req.Response.MediaRefs)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO interview_responses (interview_id, question_id, answer_text, media_refs, answered_at)
        VALUES (?,?,?,?,?)
        ON CONFLICT(interview_id, question_id) DO UPDATE SET
            answer_text=excluded.answer_text, media_refs=excluded.media_refs, answered_at=excluded.answered_at`,
		req.Response.InterviewID, req.Response.QuestionID, req.Response.AnswerText, refs, now); err != nil {
		return err
	}

	// Re-answering replaces whatever the previous answer taught us.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM trait_entries WHERE source_interview_id=? AND source_question_id=?`,
		req.Response.InterviewID, req.Response.QuestionID); err != nil {
		return err
	}
	for _, e := range req.Traits {
		if _, err := insertTrait(ctx, tx, e, now); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE interviews SET current_question_index=?, status=?, completed_at=?
        WHERE interview_id=?`,
		req.Interview.CurrentQuestionIndex, string(req.Interview.Status),
		req.Interview.CompletedAt, req.Interview.InterviewID); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Responses ---

type responses struct{ db *sql.DB }

func scanResponse(row rowScanner) (*model.InterviewResponse, error) {
	var out model.InterviewResponse
	var refs sql.NullString
	if err := row.Scan(&out.InterviewID, &out.QuestionID, &out.AnswerText, &refs, &out.AnsweredAt); err != nil {
		return nil, mapNoRows(err)
	}
	if refs.Valid {
		if err := json.Unmarshal([]byte(refs.String), &out.MediaRefs); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

func (r *responses) Get(ctx context.Context, interviewID, questionID string) (*model.InterviewResponse, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT interview_id, question_id, answer_text, media_refs, answered_at
        FROM interview_responses WHERE interview_id=? AND question_id=?`, interviewID, questionID)
	return scanResponse(row)
}

func (r *responses) ListByInterview(ctx context.Context, interviewID string) ([]*model.InterviewResponse, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT interview_id, question_id, answer_text, media_refs, answered_at
        FROM interview_responses WHERE interview_id=? ORDER BY answered_at ASC`, interviewID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.InterviewResponse
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// --- Connections ---

type connections struct{ db *sql.DB }

func (c *connections) Upsert(ctx context.Context, uc *model.UserConnection) (*model.UserConnection, error) {
	now := time.Now().UTC()
	if _, err := c.db.ExecContext(ctx, `
        INSERT INTO user_connections (requester_user_id, target_persona_id, relationship, creation_time)
        VALUES (?,?,?,?)
        ON CONFLICT(requester_user_id, target_persona_id) DO UPDATE SET relationship=excluded.relationship`,
		uc.RequesterUserID, uc.TargetPersonaID, string(uc.Relationship), now); err != nil {
		return nil, err
	}
	out := *uc
	out.CreationTime = now
	return &out, nil
}

func (c *connections) Get(ctx context.Context, requesterUserID, targetPersonaID string) (*model.UserConnection, error) {
	var out model.UserConnection
	var rel string
	row := c.db.QueryRowContext(ctx, `
        SELECT requester_user_id, target_persona_id, relationship, creation_time
        FROM user_connections WHERE requester_user_id=? AND target_persona_id=?`,
		requesterUserID, targetPersonaID)
	if err := row.Scan(&out.RequesterUserID, &out.TargetPersonaID, &rel, &out.CreationTime); err != nil {
		return nil, mapNoRows(err)
	}
	out.Relationship = model.Relationship(rel)
	return &out, nil
}
