package model

import "time"

// PersonaKind is a closed set; call sites switch exhaustively so a new kind
// forces every check to be revisited.
type PersonaKind string

const (
	KindMain    PersonaKind = "main"
	KindChild   PersonaKind = "child"
	KindPublic  PersonaKind = "public"
	KindPremium PersonaKind = "premium"
)

// Valid reports whether k is a known persona kind.
func (k PersonaKind) Valid() bool {
	switch k {
	case KindMain, KindChild, KindPublic, KindPremium:
		return true
	}
	return false
}

// Derived reports whether the kind is produced by derivation from a Main
// persona (everything except Main itself).
func (k PersonaKind) Derived() bool { return k.Valid() && k != KindMain }

// PrivacyLevel orders disclosure from most restrictive to least.
type PrivacyLevel string

const (
	PrivacyPrivate     PrivacyLevel = "private"
	PrivacyFriends     PrivacyLevel = "friends"
	PrivacySubscribers PrivacyLevel = "subscribers"
	PrivacyPublic      PrivacyLevel = "public"
)

func (p PrivacyLevel) Valid() bool {
	switch p {
	case PrivacyPrivate, PrivacyFriends, PrivacySubscribers, PrivacyPublic:
		return true
	}
	return false
}

// Sensitivity classifies a trait entry for content filtering.
type Sensitivity string

const (
	SensitivityPublic       Sensitivity = "public"
	SensitivityPersonalInfo Sensitivity = "personal_info"
	SensitivitySecret       Sensitivity = "secret"
	SensitivityExplicit     Sensitivity = "explicit"
)

func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityPublic, SensitivityPersonalInfo, SensitivitySecret, SensitivityExplicit:
		return true
	}
	return false
}

// SessionType selects an interview question bank.
type SessionType string

const (
	SessionInitial  SessionType = "initial"
	SessionFollowup SessionType = "followup"
	SessionTopical  SessionType = "topical"
)

func (s SessionType) Valid() bool {
	switch s {
	case SessionInitial, SessionFollowup, SessionTopical:
		return true
	}
	return false
}

// InterviewStatus is the interview state machine state.
type InterviewStatus string

const (
	InterviewNotStarted InterviewStatus = "not_started"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewAbandoned  InterviewStatus = "abandoned"
)

// QuestionKind describes how a question is asked and answered.
type QuestionKind string

const (
	QuestionSimple       QuestionKind = "simple"
	QuestionComplex      QuestionKind = "complex"
	QuestionScenario     QuestionKind = "scenario"
	QuestionSocialPrompt QuestionKind = "social_prompt"
)

// Relationship is the requester's connection to a target persona, supplied by
// the external relationship service.
type Relationship string

const (
	RelationNone       Relationship = "none"
	RelationFriend     Relationship = "friend"
	RelationFollower   Relationship = "follower"
	RelationSubscriber Relationship = "subscriber"
	RelationBlocked    Relationship = "blocked"
)

// GuardRails restricts who may interact with a persona and about what.
// MaxInteractionDepth of 0 means unlimited.
type GuardRails struct {
	AllowedUserIDs      []string `json:"allowedUserIds,omitempty"`
	BlockedUserIDs      []string `json:"blockedUserIds,omitempty"`
	AllowedTopics       []string `json:"allowedTopics,omitempty"`
	BlockedTopics       []string `json:"blockedTopics,omitempty"`
	MaxInteractionDepth int      `json:"maxInteractionDepth"`
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// BlocksUser reports whether userID is on the block list.
func (g GuardRails) BlocksUser(userID string) bool { return contains(g.BlockedUserIDs, userID) }

// BlocksTopic reports whether topic is on the topic block list.
func (g GuardRails) BlocksTopic(topic string) bool { return contains(g.BlockedTopics, topic) }

// AllowsTopic reports whether topic passes the allow list. An empty allow
// list permits every topic.
func (g GuardRails) AllowsTopic(topic string) bool {
	return len(g.AllowedTopics) == 0 || contains(g.AllowedTopics, topic)
}

// ContentFilter is a per-sensitivity-class disclosure switch.
type ContentFilter struct {
	AllowExplicit     bool `json:"allowExplicit"`
	AllowPersonalInfo bool `json:"allowPersonalInfo"`
	AllowSecrets      bool `json:"allowSecrets"`
	AllowMedia        bool `json:"allowMedia"`
}

// AllowsSensitivity reports whether entries of class s may be disclosed.
// Public entries are never filtered by sensitivity.
func (f ContentFilter) AllowsSensitivity(s Sensitivity) bool {
	switch s {
	case SensitivityExplicit:
		return f.AllowExplicit
	case SensitivityPersonalInfo:
		return f.AllowPersonalInfo
	case SensitivitySecret:
		return f.AllowSecrets
	}
	return true
}

// Monetization holds optional pricing for premium personas.
type Monetization struct {
	Tier       string `json:"tier"`
	PriceCents int    `json:"priceCents"`
}

// Persona is one digital persona. Exactly one Main persona exists per owner;
// derived personas point at it through ParentPersonaID.
type Persona struct {
	PersonaID         string        `json:"personaId"`
	OwnerUserID       string        `json:"ownerUserId"`
	Kind              PersonaKind   `json:"kind"`
	ParentPersonaID   *string       `json:"parentPersonaId,omitempty"`
	Name              string        `json:"name"`
	Description       *string       `json:"description,omitempty"`
	PrivacyLevel      PrivacyLevel  `json:"privacyLevel"`
	GuardRails        GuardRails    `json:"guardRails"`
	ContentFilter     ContentFilter `json:"contentFilter"`
	Monetization      *Monetization `json:"monetization,omitempty"`
	Status            string        `json:"status"`
	InteractionCount  int           `json:"interactionCount"`
	LastInteractionAt *time.Time    `json:"lastInteractionAt,omitempty"`
	CreationTime      time.Time     `json:"creationTime"`
}

// TraitEntry is one piece of learned personality data. Entries are
// append-only; they are removed only when their persona is deleted or their
// source response is re-answered.
type TraitEntry struct {
	EntryID           string      `json:"entryId"`
	PersonaID         string      `json:"personaId"`
	Sensitivity       Sensitivity `json:"sensitivity"`
	Topic             string      `json:"topic"`
	Content           string      `json:"content"`
	Confidence        float64     `json:"confidence"`
	MediaRefs         []string    `json:"mediaRefs,omitempty"`
	SourceInterviewID *string     `json:"sourceInterviewId,omitempty"`
	SourceQuestionID  *string     `json:"sourceQuestionId,omitempty"`
	InheritedFrom     *string     `json:"inheritedFrom,omitempty"`
	CreationTime      time.Time   `json:"creationTime"`
	ExpiresAt         *time.Time  `json:"expiresAt,omitempty"`
}

// HasMedia reports whether the entry carries media reference handles.
func (e *TraitEntry) HasMedia() bool { return len(e.MediaRefs) > 0 }

// Expired reports whether the entry has passed its expiry, if any.
func (e *TraitEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// InterviewQuestion is one question in a session-type bank. Order is the
// zero-based position within the bank.
type InterviewQuestion struct {
	QuestionID   string       `json:"questionId"`
	SessionType  SessionType  `json:"sessionType"`
	Order        int          `json:"order"`
	Kind         QuestionKind `json:"kind"`
	Prompt       string       `json:"prompt"`
	ExpectsMedia bool         `json:"expectsMedia"`
}

// Interview is one structured learning session for a persona. PersonaID is
// empty on completed interviews whose persona has been deleted (the row is
// retained for audit).
type Interview struct {
	InterviewID          string          `json:"interviewId"`
	PersonaID            string          `json:"personaId,omitempty"`
	SessionType          SessionType     `json:"sessionType"`
	Status               InterviewStatus `json:"status"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	StartedAt            time.Time       `json:"startedAt"`
	CompletedAt          *time.Time      `json:"completedAt,omitempty"`
}

// InterviewResponse is the stored answer for one question of one interview.
// Re-answering overwrites the previous row.
type InterviewResponse struct {
	InterviewID string    `json:"interviewId"`
	QuestionID  string    `json:"questionId"`
	AnswerText  string    `json:"answerText"`
	MediaRefs   []string  `json:"mediaRefs,omitempty"`
	AnsweredAt  time.Time `json:"answeredAt"`
}

// UserConnection records the relationship between a requester and a target
// persona. Written by the external social-connection service, read here.
type UserConnection struct {
	RequesterUserID string       `json:"requesterUserId"`
	TargetPersonaID string       `json:"targetPersonaId"`
	Relationship    Relationship `json:"relationship"`
	CreationTime    time.Time    `json:"creationTime"`
}

// User represents an account in the system.
type User struct {
	UserID       string     `json:"userId"`
	Email        string     `json:"email"`
	DisplayName  *string    `json:"displayName,omitempty"`
	TimeZone     string     `json:"timeZone"`
	Status       string     `json:"status"`
	CreationTime time.Time  `json:"creationTime"`
	LastActive   *time.Time `json:"lastActiveTime,omitempty"`
}

// TraitCandidate is one scored trait produced by the external extraction
// scorer for an interview answer.
type TraitCandidate struct {
	Topic       string      `json:"topic"`
	Content     string      `json:"content"`
	Sensitivity Sensitivity `json:"sensitivity"`
	Confidence  float64     `json:"confidence"`
}

// ListTraitsRequest captures filters used when listing trait entries.
// Results are ordered by confidence, then recency, newest first.
type ListTraitsRequest struct {
	PersonaID      string
	Limit          int
	IncludeExpired bool
}

// PersonaPatch is a partial update for UpdatePersona. Nil fields are left
// untouched.
type PersonaPatch struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Kind          *PersonaKind   `json:"kind,omitempty"`
	ParentID      *string        `json:"parentPersonaId,omitempty"`
	PrivacyLevel  *PrivacyLevel  `json:"privacyLevel,omitempty"`
	GuardRails    *GuardRails    `json:"guardRails,omitempty"`
	ContentFilter *ContentFilter `json:"contentFilter,omitempty"`
	Monetization  *Monetization  `json:"monetization,omitempty"`
}
