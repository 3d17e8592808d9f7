// Package guardrail decides, for one requester and one trait entry, whether
// the entry may be disclosed. The decision is a pure function of its inputs.
package guardrail

import (
	"github.com/perscribe/persona-backend/internal/model"
)

// Denial reasons. These are for internal audit logging only and must never be
// surfaced to the requester.
const (
	ReasonBlockedUser          = "blocked_user"
	ReasonBlockedTopic         = "blocked_topic"
	ReasonPrivatePersona       = "private_persona"
	ReasonNotConnected         = "not_connected"
	ReasonSubscriptionRequired = "subscription_required"
	ReasonExplicitNotAllowed   = "explicit_not_allowed"
	ReasonPersonalNotAllowed   = "personal_info_not_allowed"
	ReasonSecretNotAllowed     = "secret_not_allowed"
	ReasonMediaNotAllowed      = "media_not_allowed"
	ReasonTopicNotAllowlisted  = "topic_not_allowlisted"
	ReasonDepthExceeded        = "depth_exceeded"
)

// Request carries everything a disclosure decision depends on.
type Request struct {
	RequesterUserID  string
	Persona          *model.Persona
	Entry            *model.TraitEntry
	Relationship     model.Relationship
	InteractionDepth int
}

// Decision is the outcome of evaluating one entry for one requester. A deny
// is a normal value, not an error.
type Decision struct {
	Allowed bool
	Reason  string
	Rule    string
}

func allow(rule string) *Decision { return &Decision{Allowed: true, Rule: rule} }

func deny(rule, reason string) *Decision {
	return &Decision{Allowed: false, Reason: reason, Rule: rule}
}

// A rule either decides the request or passes (returns nil).
type rule struct {
	name  string
	check func(Request) *Decision
}

// Rules are evaluated in order and the first decision wins. The ordering is
// security-relevant: explicit blocks and the privacy tier outrank allow
// lists, so an allow list can never bypass a block. Do not reorder.
var rules = []rule{
	{"owner", func(r Request) *Decision {
		if r.RequesterUserID == r.Persona.OwnerUserID {
			return allow("owner")
		}
		return nil
	}},
	{"blocked_user", func(r Request) *Decision {
		if r.Persona.GuardRails.BlocksUser(r.RequesterUserID) {
			return deny("blocked_user", ReasonBlockedUser)
		}
		return nil
	}},
	{"blocked_topic", func(r Request) *Decision {
		if r.Persona.GuardRails.BlocksTopic(r.Entry.Topic) {
			return deny("blocked_topic", ReasonBlockedTopic)
		}
		return nil
	}},
	{"privacy_private", func(r Request) *Decision {
		if r.Persona.PrivacyLevel == model.PrivacyPrivate {
			return deny("privacy_private", ReasonPrivatePersona)
		}
		return nil
	}},
	{"privacy_friends", func(r Request) *Decision {
		if r.Persona.PrivacyLevel == model.PrivacyFriends &&
			r.Relationship != model.RelationFriend && r.Relationship != model.RelationSubscriber {
			return deny("privacy_friends", ReasonNotConnected)
		}
		return nil
	}},
	{"privacy_subscribers", func(r Request) *Decision {
		if r.Persona.PrivacyLevel == model.PrivacySubscribers &&
			r.Relationship != model.RelationSubscriber {
			return deny("privacy_subscribers", ReasonSubscriptionRequired)
		}
		return nil
	}},
	{"content_filter", func(r Request) *Decision {
		f := r.Persona.ContentFilter
		switch r.Entry.Sensitivity {
		case model.SensitivityExplicit:
			if !f.AllowExplicit {
				return deny("content_filter", ReasonExplicitNotAllowed)
			}
		case model.SensitivityPersonalInfo:
			if !f.AllowPersonalInfo {
				return deny("content_filter", ReasonPersonalNotAllowed)
			}
		case model.SensitivitySecret:
			if !f.AllowSecrets {
				return deny("content_filter", ReasonSecretNotAllowed)
			}
		}
		if r.Entry.HasMedia() && !f.AllowMedia {
			return deny("content_filter", ReasonMediaNotAllowed)
		}
		return nil
	}},
	{"topic_allowlist", func(r Request) *Decision {
		if !r.Persona.GuardRails.AllowsTopic(r.Entry.Topic) {
			return deny("topic_allowlist", ReasonTopicNotAllowlisted)
		}
		return nil
	}},
	{"interaction_depth", func(r Request) *Decision {
		max := r.Persona.GuardRails.MaxInteractionDepth
		if max > 0 && r.InteractionDepth > max {
			return deny("interaction_depth", ReasonDepthExceeded)
		}
		return nil
	}},
}

// Evaluate runs the ordered rule list and returns the first decision, or an
// allow when no rule objects.
func Evaluate(r Request) Decision {
	for _, rl := range rules {
		if d := rl.check(r); d != nil {
			return *d
		}
	}
	return Decision{Allowed: true, Rule: "default"}
}
