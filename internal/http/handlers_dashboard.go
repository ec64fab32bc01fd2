package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
	"finsight/internal/log"
	"finsight/internal/session"
)

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	view := buildDashboard(sess, parseFilters(r.URL.Query()), s.today())
	s.render(w, r, "dashboard_page", page{Title: "Dashboard", Active: "dashboard", View: view})
}

// handleDashboardPartial re-renders the dashboard body, e.g. when filters change.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.render(w, r, "dashboard_content", buildDashboard(sess, parseFilters(r.URL.Query()), s.today()))
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	goal, err := ParseBudgetGoal(r.Form)
	if err != nil {
		s.rejectInput(w, r, err)
		return
	}

	sess, err := s.sessions.Update(r.Context(), sessionID(r), func(sess *session.Session) error {
		return sess.SetBudgetGoal(goal, s.sessions.Now())
	})
	if err != nil {
		s.failUpdate(w, r, err, log.OpBudget)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget goal updated",
		log.FieldOperation, log.OpBudget, "goal", goal.StringFixed(2))
	s.respondDashboard(w, r, sess, NewHTMXResponse().
		TriggerBudgetUpdated(goal.StringFixed(2)).
		Notify(core.SuccessNotice(budgetMessage(goal))))
}

func budgetMessage(goal decimal.Decimal) string {
	if goal.IsZero() {
		return "Budget goal cleared"
	}
	return "Monthly budget goal set to " + core.FormatDollars(goal)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	item, err := ParseItemForm(r.Form, s.today())
	if err != nil {
		s.rejectInput(w, r, err)
		return
	}

	sess, err := s.sessions.Update(r.Context(), sessionID(r), func(sess *session.Session) error {
		return sess.AddItem(item, s.sessions.Now())
	})
	if err != nil {
		s.failUpdate(w, r, err, log.OpAdd)
		return
	}

	atomic.AddInt64(&s.appMetrics.itemsAdded, 1)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Item added",
		log.FieldOperation, log.OpAdd, "item", item.Name, "price", item.Price.StringFixed(2))
	s.respondDashboard(w, r, sess, NewHTMXResponse().
		TriggerItemsChanged(len(sess.Items())).
		TriggerFormReset().
		Notify(core.SuccessNotice("Added "+item.Name)))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(r)
	if !ok {
		Fail(http.StatusNotFound, "Unknown item").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	item, err := ParseItemForm(r.Form, s.today())
	if err != nil {
		s.rejectInput(w, r, err)
		return
	}

	sess, err := s.sessions.Update(r.Context(), sessionID(r), func(sess *session.Session) error {
		return sess.UpdateItem(idx, item, s.sessions.Now())
	})
	if err != nil {
		s.failUpdate(w, r, err, log.OpUpdate)
		return
	}

	atomic.AddInt64(&s.appMetrics.itemsEdited, 1)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Item updated",
		log.FieldOperation, log.OpUpdate, log.FieldItemIndex, idx)
	s.respondDashboard(w, r, sess, NewHTMXResponse().
		TriggerItemsChanged(len(sess.Items())).
		Notify(core.SuccessNotice("Saved "+item.Name)))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	idx, ok := pathIndex(r)
	if !ok {
		Fail(http.StatusNotFound, "Unknown item").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	sess, err := s.sessions.Update(r.Context(), sessionID(r), func(sess *session.Session) error {
		return sess.DeleteItem(idx, s.sessions.Now())
	})
	if err != nil {
		s.failUpdate(w, r, err, log.OpDelete)
		return
	}

	atomic.AddInt64(&s.appMetrics.itemsDeleted, 1)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Item deleted",
		log.FieldOperation, log.OpDelete, log.FieldItemIndex, idx)
	s.respondDashboard(w, r, sess, NewHTMXResponse().
		TriggerItemsChanged(len(sess.Items())).
		Notify(core.SuccessNotice("Item deleted")))
}

// respondDashboard answers a dashboard mutation with the refreshed dashboard
// body. Plain form posts are redirected back to the page instead.
func (s *Server) respondDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session, resp *HTMXResponse) {
	if r.Header.Get("HX-Request") == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	html, err := s.renderHTML(r.Context(), "dashboard_content", buildDashboard(sess, parseFilters(r.Form), s.today()))
	if err != nil {
		ErrorFragment(http.StatusInternalServerError, "Unable to render dashboard").Write(w)
		return
	}
	resp.HTML(html).Write(w)
}

func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Load(r.Context(), sessionID(r))
	if err != nil {
		s.structured.LogError(r.Context(), "Session load failed", err, log.ComponentSession, "load",
			log.NewFields().WithSession(sessionID(r)))
		ErrorFragment(http.StatusInternalServerError, "Your session could not be loaded. Please try again.").Write(w)
		return nil, false
	}
	return sess, true
}

// rejectInput answers a validation failure with 422 and a toast.
func (s *Server) rejectInput(w http.ResponseWriter, r *http.Request, err error) {
	msg, ok := userMessage(err)
	if !ok {
		msg = "Invalid input"
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected input", log.FieldError, err)
	Fail(http.StatusUnprocessableEntity, msg).Write(w)
}

// failUpdate maps errors from a session update. A stale row index is 404,
// other user mistakes 422, anything else a store failure.
func (s *Server) failUpdate(w http.ResponseWriter, r *http.Request, err error, op string) {
	if msg, ok := userMessage(err); ok {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, session.ErrItemIndex) {
			status = http.StatusNotFound
		}
		Fail(status, msg).Write(w)
		return
	}
	s.structured.LogError(r.Context(), "Session update failed", err, log.ComponentSession, op,
		log.NewFields().WithSession(sessionID(r)))
	ErrorFragment(http.StatusInternalServerError, "Your changes could not be saved. Please try again.").
		Notify(core.ErrorNotice("Your changes could not be saved")).
		Write(w)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.sessions.Now())
}
