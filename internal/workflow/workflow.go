// Package workflow holds the moderation state machines for experiences and
// contacts. It computes field changes for a transition and never touches the
// store.
package workflow

import (
	"fmt"
	"strings"

	"github.com/anishLS3/Placify-sub001/internal/models"
)

// Kind names the record type a transition table applies to.
type Kind string

const (
	KindExperience Kind = "experience"
	KindContact    Kind = "contact"
)

var experienceTransitions = map[string][]string{
	string(models.ExperienceStatusPending):  {string(models.ExperienceStatusApproved), string(models.ExperienceStatusRejected)},
	string(models.ExperienceStatusApproved): {string(models.ExperienceStatusRejected)},
	string(models.ExperienceStatusRejected): {string(models.ExperienceStatusApproved), string(models.ExperienceStatusPending)},
}

var contactTransitions = map[string][]string{
	string(models.ContactStatusNew):        {string(models.ContactStatusInProgress), string(models.ContactStatusResolved), string(models.ContactStatusClosed)},
	string(models.ContactStatusInProgress): {string(models.ContactStatusResolved), string(models.ContactStatusClosed)},
	string(models.ContactStatusResolved):   {string(models.ContactStatusClosed), string(models.ContactStatusInProgress)},
	string(models.ContactStatusClosed):     {string(models.ContactStatusInProgress)},
}

func table(kind Kind) map[string][]string {
	switch kind {
	case KindExperience:
		return experienceTransitions
	case KindContact:
		return contactTransitions
	}
	return nil
}

// CanTransition reports whether a record of kind may move from current to target.
func CanTransition(kind Kind, current, target string) bool {
	for _, s := range table(kind)[current] {
		if s == target {
			return true
		}
	}
	return false
}

// Allowed returns the statuses reachable from current. The result is a copy.
func Allowed(kind Kind, current string) []string {
	next := table(kind)[current]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// Sources returns every status that may legally move to target, in table order.
func Sources(kind Kind, target string) []string {
	var out []string
	var order []string
	switch kind {
	case KindExperience:
		for _, s := range models.ExperienceStatuses {
			order = append(order, string(s))
		}
	case KindContact:
		for _, s := range models.ContactStatuses {
			order = append(order, string(s))
		}
	}
	for _, from := range order {
		if CanTransition(kind, from, target) {
			out = append(out, from)
		}
	}
	return out
}

// IllegalTransitionError is returned when target is not reachable from From.
type IllegalTransitionError struct {
	Kind    Kind
	From    string
	To      string
	Allowed []string
}

func (e *IllegalTransitionError) Error() string {
	verb := verbFor(e.To)
	if e.From == e.To {
		return fmt.Sprintf("cannot %s an already-%s record", verb, e.From)
	}
	allowed := "none"
	if len(e.Allowed) > 0 {
		allowed = strings.Join(e.Allowed, ", ")
	}
	return fmt.Sprintf("cannot %s %s %s record; allowed targets: %s", verb, article(e.From), e.From, allowed)
}

func illegal(kind Kind, from, to string) *IllegalTransitionError {
	return &IllegalTransitionError{Kind: kind, From: from, To: to, Allowed: Allowed(kind, from)}
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func verbFor(target string) string {
	switch target {
	case string(models.ExperienceStatusApproved):
		return "approve"
	case string(models.ExperienceStatusRejected):
		return "reject"
	case string(models.ExperienceStatusPending):
		return "reopen"
	case string(models.ContactStatusInProgress):
		return "start work on"
	case string(models.ContactStatusResolved):
		return "resolve"
	case string(models.ContactStatusClosed):
		return "close"
	}
	return "move to " + target
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}
