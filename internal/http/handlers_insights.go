package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"finsight/internal/core"
	"finsight/internal/insights"
	"finsight/internal/log"
)

func (s *Server) handleInsightsPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	view := insightsView{ItemCount: len(sess.Items()), Tips: insights.QuickTips}
	if view.ItemCount == 0 {
		view.Empty = true
		view.EmptyText = emptyInsightsText
	}
	s.render(w, r, "insights_page", page{Title: "AI Insights", Active: "insights", View: view})
}

// handleGenerateInsights asks the model for the four-card report. A model
// failure is shown in place of the cards; the page stays usable.
func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	items := sess.Items()
	view := insightsView{ItemCount: len(items)}
	resp := NewHTMXResponse()

	sections, err := s.insights.SummarizeStructured(ctx, items)
	switch {
	case errors.Is(err, insights.ErrNoItems):
		view.Empty = true
		view.EmptyText = emptyInsightsText
	case err != nil:
		atomic.AddInt64(&s.appMetrics.insightsFailed, 1)
		s.structured.LogError(ctx, "Insight generation failed", err, log.ComponentInsights, log.OpInsights,
			log.NewFields().WithSession(sessionID(r)).With(log.FieldItemCount, len(items)))
		view.Error = "Error generating insights: " + err.Error()
		resp.Notify(core.WarningNotice("Insights are unavailable right now"))
	default:
		atomic.AddInt64(&s.appMetrics.insightsGenerated, 1)
		view.Cards = insights.Cards(sections)
		log.FromContext(ctx).InfoContext(ctx, "Insights generated",
			log.FieldOperation, log.OpInsights,
			log.FieldItemCount, len(items),
			"sections", len(sections))
	}

	html, err := s.renderHTML(ctx, "insight_cards", view)
	if err != nil {
		ErrorFragment(http.StatusInternalServerError, "Unable to render insights").Write(w)
		return
	}
	resp.HTML(html).Write(w)
}

// handleSummary returns the short free-text insights, or the fallback
// sentence when the model is unavailable.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	items := sess.Items()
	view := insightsView{ItemCount: len(items)}

	text, err := s.insights.Summarize(ctx, items)
	switch {
	case errors.Is(err, insights.ErrNoItems):
		view.Empty = true
		view.EmptyText = emptyInsightsText
	case err != nil:
		atomic.AddInt64(&s.appMetrics.insightsFailed, 1)
		log.FromContext(ctx).WarnContext(ctx, "Summary unavailable", log.FieldError, err)
		view.Summary = text
	default:
		atomic.AddInt64(&s.appMetrics.insightsGenerated, 1)
		view.Summary = text
	}
	s.render(w, r, "insight_summary", view)
}
