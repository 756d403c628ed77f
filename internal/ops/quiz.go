package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/progress"
	"github.com/hpungsan/medmastery/internal/qbank"
)

// QuestionView is a vignette without its answer key.
type QuestionView struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Probe    string   `json:"socratic_probe,omitempty"`
}

func newQuestionView(v qbank.Vignette) QuestionView {
	return QuestionView{
		ID:       v.ID,
		Category: v.Category,
		Title:    v.Title,
		Prompt:   v.Prompt,
		Options:  v.Options,
		Probe:    v.Probe,
	}
}

// ListQuestionsInput contains parameters for the ListQuestions operation.
type ListQuestionsInput struct {
	Category string // optional, case-insensitive
}

// ListQuestionsOutput contains the result of the ListQuestions operation.
type ListQuestionsOutput struct {
	Items      []QuestionView `json:"items"`
	Categories []string       `json:"categories"`
}

// ListQuestions lists vignettes without revealing answers.
func ListQuestions(ctx context.Context, env *Env, input ListQuestionsInput) (*ListQuestionsOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("questions")
	}
	items := []QuestionView{}
	for _, v := range env.Bank.List(strings.TrimSpace(input.Category)) {
		items = append(items, newQuestionView(v))
	}
	categories := env.Bank.Categories()
	if categories == nil {
		categories = []string{}
	}
	return &ListQuestionsOutput{Items: items, Categories: categories}, nil
}

// GetQuestion returns a single vignette without its answer key.
func GetQuestion(ctx context.Context, env *Env, id string) (*QuestionView, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("question")
	}
	v, ok := env.Bank.Get(strings.TrimSpace(id))
	if !ok {
		return nil, errors.NewNotFound("question", id)
	}
	view := newQuestionView(v)
	return &view, nil
}

// AnswerInput contains parameters for the Answer operation.
type AnswerInput struct {
	ID     string // vignette id
	Option string // letter (A-E) or zero-based index
}

// AnswerOutput contains the result of the Answer operation.
type AnswerOutput struct {
	qbank.Result
	Subject  string         `json:"subject"`
	Progress progress.Entry `json:"progress"`
	Accuracy int            `json:"accuracy"`
	Logic    string         `json:"logic,omitempty"`
	Warning  string         `json:"warning,omitempty"`
}

// Answer scores an option and records the attempt under the vignette's category.
func Answer(ctx context.Context, env *Env, input AnswerInput) (*AnswerOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	v, ok := env.Bank.Get(id)
	if !ok {
		return nil, errors.NewNotFound("question", id)
	}
	option, err := v.ParseOption(input.Option)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	result, err := v.Check(option)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	unlock, err := env.lock(ctx, "answer")
	if err != nil {
		return nil, err
	}
	defer unlock()

	_, err = env.Tracker.Record(ctx, v.Category, result.Correct)
	warn, err := env.warning(err)
	if err != nil {
		return nil, err
	}

	out := &AnswerOutput{
		Result:  result,
		Subject: v.Category,
		Logic:   v.Logic,
		Warning: warn,
	}
	if e, ok := env.Tracker.Get(ctx, strings.TrimSpace(v.Category)); ok {
		out.Progress = e
		out.Accuracy = progress.Accuracy(e)
	}
	return out, nil
}
