// Package contentgate decides whether a public submission may enter the
// moderation queue.
package contentgate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/anishLS3/Placify-sub001/internal/config"
)

// Verdict is the outcome of a gate evaluation.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	Field    string `json:"field,omitempty"`
}

func accept() Verdict { return Verdict{Accepted: true} }

func reject(field, reason string) Verdict {
	return Verdict{Reason: reason, Field: field}
}

// Submission is a public input the gate can evaluate.
type Submission interface {
	// texts returns the free-text fields keyed by field name.
	texts() map[string]string
}

type ExperienceSubmission struct {
	CandidateName string `json:"candidate_name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	Company       string `json:"company" validate:"required,max=100"`
	Role          string `json:"role" validate:"required,max=100"`
	Location      string `json:"location" validate:"max=100"`
	Year          int    `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Difficulty    string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Outcome       string `json:"outcome" validate:"omitempty,oneof=selected not-selected pending"`
	Rounds        string `json:"rounds" validate:"max=2000"`
	Experience    string `json:"experience" validate:"required,min=50,max=10000"`
	Tips          string `json:"tips" validate:"max=2000"`
}

func (s ExperienceSubmission) texts() map[string]string {
	return map[string]string{
		"candidate_name": s.CandidateName,
		"company":        s.Company,
		"role":           s.Role,
		"rounds":         s.Rounds,
		"experience":     s.Experience,
		"tips":           s.Tips,
	}
}

type ContactSubmission struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Subject  string `json:"subject" validate:"required,min=3,max=200"`
	Category string `json:"category" validate:"omitempty,oneof=general feedback bug partnership other"`
	Message  string `json:"message" validate:"required,min=10,max=5000"`
}

func (s ContactSubmission) texts() map[string]string {
	return map[string]string{
		"name":    s.Name,
		"subject": s.Subject,
		"message": s.Message,
	}
}

// Gate evaluates submissions. Implementations must be safe for concurrent use.
type Gate interface {
	Evaluate(ctx context.Context, s Submission) Verdict
}

const (
	repeatLimit     = 10
	upperRatioLimit = 0.7
	upperMinLetters = 20
)

var linkPattern = regexp.MustCompile(`(?i)\bhttps?://|\bwww\.`)

// Default combines struct validation with spam heuristics.
type Default struct {
	validate *validator.Validate
	blocked  []string
	maxLinks int
}

func New(cfg config.GateConfig) *Default {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	blocked := make([]string, 0, len(cfg.BlockedTerms))
	for _, term := range cfg.BlockedTerms {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			blocked = append(blocked, term)
		}
	}
	maxLinks := cfg.MaxLinks
	if maxLinks < 0 {
		maxLinks = 0
	}
	return &Default{validate: v, blocked: blocked, maxLinks: maxLinks}
}

func (g *Default) Evaluate(ctx context.Context, s Submission) Verdict {
	if s == nil {
		return reject("", "empty submission")
	}
	if err := g.validate.StructCtx(ctx, s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return reject(fe.Field(), describe(fe))
		}
		return reject("", "invalid submission")
	}

	texts := s.texts()
	fields := make([]string, 0, len(texts))
	for field := range texts {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	links := 0
	for _, field := range fields {
		text := texts[field]
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		for _, term := range g.blocked {
			if strings.Contains(lower, term) {
				return reject(field, "contains blocked content")
			}
		}
		if hasRepeatedRun(text, repeatLimit) {
			return reject(field, "contains excessive repeated characters")
		}
		if shouting(text) {
			return reject(field, "is mostly upper-case")
		}
		links += len(linkPattern.FindAllStringIndex(text, -1))
	}
	if links > g.maxLinks {
		return reject("", fmt.Sprintf("contains %d links, at most %d allowed", links, g.maxLinks))
	}
	return accept()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", fe.Field())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

func hasRepeatedRun(s string, limit int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev && !unicode.IsSpace(r) {
			run++
			if run >= limit {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}

func shouting(s string) bool {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= upperMinLetters && float64(upper)/float64(letters) > upperRatioLimit
}
