package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/medmastery/internal/errors"
	"github.com/hpungsan/medmastery/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	env      *ops.Env
	renderer *Renderer
}

// HandleDeck handles GET /deck: the card under the review cursor.
func (h *Handlers) HandleDeck(w http.ResponseWriter, r *http.Request) {
	session, err := ops.Next(r.Context(), h.env, ops.NextInput{})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, session)
		return
	}

	data := DeckPageData{
		PageData: h.renderer.page("Study", "deck"),
		Session:  session,
		DueCount: session.Remaining,
		Warning:  r.URL.Query().Get("warning"),
	}
	if session.Card != nil && session.Card.Back != "" {
		data.BackHTML = renderMarkdown(session.Card.Back)
	}
	if id := r.URL.Query().Get("reviewed"); id != "" {
		if card, err := ops.FetchCard(r.Context(), h.env, ops.FetchCardInput{ID: id}); err == nil {
			data.Reviewed = &card.CardView
		}
	}

	h.renderer.renderPage(w, r, "deck", data)
}

// HandleFlip handles POST /deck/flip.
func (h *Handlers) HandleFlip(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Flip(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.afterSessionChange(w, r, result, "/deck")
}

// HandleSkip handles POST /deck/skip.
func (h *Handlers) HandleSkip(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Skip(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.afterSessionChange(w, r, result, "/deck")
}

// HandleRate handles POST /deck/rate: rates the current card and advances.
func (h *Handlers) HandleRate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Review(r.Context(), h.env, ops.ReviewInput{
		ID:     r.FormValue("id"),
		Rating: r.FormValue("rating"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	target := "/deck"
	if !result.Empty {
		q := url.Values{"reviewed": {result.Card.ID}}
		if result.Warning != "" {
			q.Set("warning", result.Warning)
		}
		target += "?" + q.Encode()
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// afterSessionChange answers a session mutation: the JSON session view,
// an HX-Redirect for htmx, or a plain redirect back to the study page.
func (h *Handlers) afterSessionChange(w http.ResponseWriter, r *http.Request, result *ops.NextOutput, target string) {
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// HandleCards handles GET /cards: the deck in collection order.
func (h *Handlers) HandleCards(w http.ResponseWriter, r *http.Request) {
	input := ops.ListCardsInput{
		Category: r.URL.Query().Get("category"),
		DueOnly:  parseBoolParam(r, "due"),
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	}

	result, err := ops.ListCards(r.Context(), h.env, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	h.renderer.renderPage(w, r, "cards", CardsPageData{
		PageData:   h.renderer.page("Cards", "cards"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Categories: result.Categories,
		Category:   input.Category,
		DueOnly:    input.DueOnly,
	})
}

// HandleCard handles GET /cards/{id}.
func (h *Handlers) HandleCard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("card ID is required"))
		return
	}

	card, err := ops.FetchCard(r.Context(), h.env, ops.FetchCardInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, card)
		return
	}

	h.renderer.renderPage(w, r, "card", CardPageData{
		PageData: h.renderer.page(card.Front, "cards"),
		Card:     card,
		BackHTML: renderMarkdown(card.Back),
	})
}

// HandleDashboard handles GET /dashboard.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := ops.Stats(r.Context(), h.env)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, stats)
		return
	}

	h.renderer.renderPage(w, r, "dashboard", DashboardPageData{
		PageData: h.renderer.page("Dashboard", "dashboard"),
		Stats:    stats,
	})
}

// HandleQuiz handles GET /quiz: the vignette list.
func (h *Handlers) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	result, err := ops.ListQuestions(r.Context(), h.env, ops.ListQuestionsInput{Category: category})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "quiz", QuizPageData{
		PageData:   h.renderer.page("Question Bank", "quiz"),
		Items:      result.Items,
		Categories: result.Categories,
		Category:   category,
	})
}

// HandleQuestion handles GET /quiz/{id}.
func (h *Handlers) HandleQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := ops.GetQuestion(r.Context(), h.env, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "question", QuestionPageData{
		PageData: h.renderer.page(q.Title, "quiz"),
		Question: q,
	})
}

// HandleAnswer handles POST /quiz/{id}: scores the chosen option and records progress.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	id := r.PathValue("id")
	result, err := ops.Answer(r.Context(), h.env, ops.AnswerInput{ID: id, Option: r.FormValue("option")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	q, err := ops.GetQuestion(r.Context(), h.env, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	explanation := result.Explanation
	if result.Logic != "" {
		explanation = strings.TrimSpace(explanation + "\n\n" + result.Logic)
	}
	h.renderer.renderPage(w, r, "question", QuestionPageData{
		PageData:        h.renderer.page(q.Title, "quiz"),
		Question:        q,
		Result:          result,
		ExplanationHTML: renderMarkdown(explanation),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
