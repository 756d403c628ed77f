// Package qbank holds the clinical vignette bank that feeds quiz answers into
// the progress tracker.
package qbank

import (
	"fmt"
	"strconv"
	"strings"
)

// Source cites the guideline a vignette is built on.
type Source struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Vignette is a single-best-answer question with its teaching notes.
type Vignette struct {
	ID                  string   `json:"id"`
	Category            string   `json:"category"`
	Title               string   `json:"title"`
	Prompt              string   `json:"prompt"`
	Options             []string `json:"options"`
	AnswerIndex         int      `json:"answerIndex"`
	Probe               string   `json:"socraticProbe,omitempty"`
	Logic               string   `json:"residencyDirectorLogic,omitempty"`
	DistractorAnalysis  []string `json:"distractorAnalysis,omitempty"`
	ConceptCluster      string   `json:"conceptCluster,omitempty"`
	RevisionPearl       string   `json:"revisionPearl,omitempty"`
	ManagementAlgorithm string   `json:"managementAlgorithm,omitempty"`
	Sources             []Source `json:"sources,omitempty"`
}

// Result is the outcome of answering a vignette.
type Result struct {
	Correct       bool   `json:"correct"`
	Chosen        int    `json:"chosen"`
	AnswerIndex   int    `json:"answer_index"`
	Answer        string `json:"answer"`
	Explanation   string `json:"explanation,omitempty"`
	RevisionPearl string `json:"revision_pearl,omitempty"`
}

// Check scores option (zero-based). Out-of-range options are an error, not
// a wrong answer, so they are never counted against the subject.
func (v Vignette) Check(option int) (Result, error) {
	if option < 0 || option >= len(v.Options) {
		return Result{}, fmt.Errorf("option %d out of range [0, %d)", option, len(v.Options))
	}
	res := Result{
		Correct:       option == v.AnswerIndex,
		Chosen:        option,
		AnswerIndex:   v.AnswerIndex,
		Answer:        v.Options[v.AnswerIndex],
		RevisionPearl: v.RevisionPearl,
	}
	if option < len(v.DistractorAnalysis) {
		res.Explanation = v.DistractorAnalysis[option]
	}
	return res, nil
}

// ParseOption accepts a zero-based index or a letter A-Z.
func (v Vignette) ParseOption(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		c := s[0]
		switch {
		case c >= 'A' && c <= 'Z':
			return int(c - 'A'), nil
		case c >= 'a' && c <= 'z':
			return int(c - 'a'), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("option must be a letter or a zero-based index, got %q", s)
	}
	return n, nil
}

// Bank is an ordered, read-only set of vignettes.
type Bank struct {
	vignettes []Vignette
	index     map[string]int
}

// New builds a bank. Ids must be unique and answer indexes must point at an option.
func New(vignettes []Vignette) (*Bank, error) {
	b := &Bank{index: make(map[string]int, len(vignettes))}
	for _, v := range vignettes {
		if v.ID == "" {
			return nil, fmt.Errorf("vignette without id")
		}
		if _, dup := b.index[v.ID]; dup {
			return nil, fmt.Errorf("duplicate vignette id %q", v.ID)
		}
		if v.AnswerIndex < 0 || v.AnswerIndex >= len(v.Options) {
			return nil, fmt.Errorf("vignette %q: answer index %d out of range", v.ID, v.AnswerIndex)
		}
		b.index[v.ID] = len(b.vignettes)
		b.vignettes = append(b.vignettes, v)
	}
	return b, nil
}

// Default returns the bank built from DefaultVignettes.
func Default() *Bank {
	b, err := New(DefaultVignettes)
	if err != nil {
		panic("qbank: invalid default vignettes: " + err.Error())
	}
	return b
}

// Get returns the vignette with id.
func (b *Bank) Get(id string) (Vignette, bool) {
	i, ok := b.index[id]
	if !ok {
		return Vignette{}, false
	}
	return b.vignettes[i], true
}

// List returns vignettes in category (case-insensitive), or all when category is empty.
func (b *Bank) List(category string) []Vignette {
	out := make([]Vignette, 0, len(b.vignettes))
	for _, v := range b.vignettes {
		if category == "" || strings.EqualFold(v.Category, category) {
			out = append(out, v)
		}
	}
	return out
}

// Categories returns the distinct categories in bank order.
func (b *Bank) Categories() []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range b.vignettes {
		if !seen[v.Category] {
			seen[v.Category] = true
			out = append(out, v.Category)
		}
	}
	return out
}
