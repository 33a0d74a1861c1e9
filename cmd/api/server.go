package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dealbrief/auth"
	"dealbrief/automation"
	"dealbrief/brief"
	"dealbrief/invite"
	"dealbrief/prospect"
	"dealbrief/quote"
)

// Narrow service interfaces so handler tests can stub each collaborator.

type briefService interface {
	Create(ctx context.Context, params brief.CreateParams) (brief.Brief, error)
	Get(ctx context.Context, id string, actor brief.Actor) (brief.Brief, error)
	List(ctx context.Context, filters brief.Filters, actor brief.Actor) (brief.ListResult, error)
}

type statusService interface {
	Set(ctx context.Context, params brief.TransitionParams) (brief.Brief, error)
}

type timelineService interface {
	List(ctx context.Context, briefID string) ([]brief.TimelineEvent, error)
}

type discoveryService interface {
	Discover(ctx context.Context, params prospect.DiscoverParams) (prospect.DiscoverResult, error)
}

type dispatchService interface {
	SendQuoteRequests(ctx context.Context, briefID string) (prospect.DispatchResult, error)
}

type prospectStore interface {
	ListByBrief(ctx context.Context, briefID string) ([]prospect.DealerProspect, error)
	UpdateReview(ctx context.Context, briefID, id string, status prospect.Status, notes *string) (prospect.DealerProspect, error)
}

type orchestratorService interface {
	Run(ctx context.Context, params automation.RunParams) (automation.Report, error)
}

type quoteService interface {
	Create(ctx context.Context, params quote.CreateParams) (quote.Record, error)
	Get(ctx context.Context, quoteID string) (quote.Record, error)
	Publish(ctx context.Context, quoteID string) (quote.Record, error)
	Accept(ctx context.Context, quoteID string) (quote.Record, error)
	Reject(ctx context.Context, quoteID string) (quote.Record, error)
	List(ctx context.Context, briefID string) ([]quote.Record, error)
}

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

type inviteService interface {
	JoinWaitlist(ctx context.Context, email string) (invite.WaitlistEntry, error)
}

// Server wires the domain services to the HTTP surface.
type Server struct {
	briefs       briefService
	status       statusService
	timeline     timelineService
	discovery    discoveryService
	dispatcher   dispatchService
	prospects    prospectStore
	orchestrator orchestratorService
	quotes       quoteService
	auth         authService
	invites      inviteService
}

// Routes mounts all handlers on a chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/api/healthz", s.handleHealthz)
	r.Post("/api/auth/register", s.handleRegister)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/waitlist", s.handleWaitlist)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/api/briefs", s.handleCreateBrief)
		r.Get("/api/briefs", s.handleListBriefs)
		r.Get("/api/briefs/{id}", s.handleBrief)
		r.Post("/api/briefs/{id}/status", s.handleSetStatus)
		r.Get("/api/briefs/{id}/timeline", s.handleTimeline)
		r.Post("/api/briefs/{id}/automate", s.handleAutomate)
		r.Post("/api/briefs/{id}/dealer-prospects", s.handleDiscoverProspects)
		r.Get("/api/briefs/{id}/dealer-prospects", s.handleListProspects)
		r.Patch("/api/briefs/{id}/dealer-prospects/{prospectId}", s.handleReviewProspect)
		r.Post("/api/briefs/{id}/send-quotes", s.handleSendQuotes)
		r.Post("/api/briefs/{id}/quotes", s.handleCreateQuote)
		r.Get("/api/briefs/{id}/quotes", s.handleListQuotes)
		r.Post("/api/quotes/{id}/publish", s.handleQuoteAction("publish"))
		r.Post("/api/quotes/{id}/accept", s.handleQuoteAction("accept"))
		r.Post("/api/quotes/{id}/reject", s.handleQuoteAction("reject"))
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.auth.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrInviteRequired),
			errors.Is(err, invite.ErrCodeNotFound),
			errors.Is(err, invite.ErrCodeExhausted):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"role":  string(user.Role),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.internalError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user": map[string]any{
			"id":    result.User.ID,
			"email": result.User.Email,
			"role":  string(result.User.Role),
		},
	})
}

func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.invites.JoinWaitlist(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, invite.ErrAlreadyListed) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": entry.ID, "email": entry.Email})
}

type createBriefRequest struct {
	Zip                string   `json:"zip"`
	PaymentType        string   `json:"paymentType"`
	BudgetCeiling      int64    `json:"budgetCeiling"`
	Makes              []string `json:"makes"`
	Models             []string `json:"models"`
	Trims              []string `json:"trims"`
	Colors             []string `json:"colors"`
	MustHaves          []string `json:"mustHaves"`
	TimelinePreference string   `json:"timelinePreference"`
	DownPayment        int64    `json:"downPayment"`
	MonthlyBudget      int64    `json:"monthlyBudget"`
	TermMonths         int      `json:"termMonths"`
}

func (s *Server) handleCreateBrief(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	var req createBriefRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.briefs.Create(r.Context(), brief.CreateParams{
		BuyerUserID:        actor.UserID,
		Zip:                req.Zip,
		PaymentType:        req.PaymentType,
		BudgetCeiling:      req.BudgetCeiling,
		Makes:              req.Makes,
		Models:             req.Models,
		Trims:              req.Trims,
		Colors:             req.Colors,
		MustHaves:          req.MustHaves,
		TimelinePreference: req.TimelinePreference,
		DownPayment:        req.DownPayment,
		MonthlyBudget:      req.MonthlyBudget,
		TermMonths:         req.TermMonths,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toBriefResponse(created))
}

func (s *Server) handleListBriefs(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	filters := brief.Filters{
		Status:   brief.Status(q.Get("status")),
		Zip:      q.Get("zip"),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := s.briefs.List(r.Context(), filters, actor)
	if err != nil {
		s.internalError(w, "list briefs", err)
		return
	}

	items := make([]briefResponse, 0, len(result.Items))
	for _, b := range result.Items {
		items = append(items, toBriefResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": result.Total})
}

func (s *Server) handleBrief(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBriefResponse(b))
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.status.Set(r.Context(), brief.TransitionParams{
		BriefID:    b.ID,
		ActorID:    actor.UserID,
		NextStatus: brief.Status(req.Status),
	})
	if err != nil {
		s.writeDomainError(w, "set status", err)
		return
	}

	writeJSON(w, http.StatusOK, toBriefResponse(updated))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	events, err := s.timeline.List(r.Context(), b.ID)
	if err != nil {
		s.internalError(w, "list timeline", err)
		return
	}

	items := make([]timelineEventResponse, 0, len(events))
	for _, ev := range events {
		items = append(items, timelineEventResponse{
			ID:        ev.ID,
			Type:      ev.Type,
			Payload:   json.RawMessage(ev.Payload),
			CreatedAt: ev.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAutomate(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	report, err := s.orchestrator.Run(r.Context(), automation.RunParams{BriefID: b.ID})
	if err != nil {
		switch {
		case automation.IsNotFound(err):
			writeError(w, http.StatusNotFound, "brief not found")
		case errors.Is(err, prospect.ErrUpstream):
			writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
		case errors.Is(err, prospect.ErrValidation):
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		default:
			log.Printf("automate brief %s: %v", b.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"briefId":    report.BriefID,
		"discovered": report.Discovered,
		"contacted":  report.Contacted,
		"failed":     report.Failed,
	})
}

type discoverRequest struct {
	Zip               string   `json:"zip"`
	DriveHours        float64  `json:"driveHours"`
	Brands            []string `json:"brands"`
	Limit             int      `json:"limit"`
	AdditionalContext string   `json:"additionalContext"`
}

func (s *Server) handleDiscoverProspects(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.discovery.Discover(r.Context(), prospect.DiscoverParams{
		BriefID:           b.ID,
		Zip:               req.Zip,
		DriveHours:        req.DriveHours,
		Brands:            req.Brands,
		Limit:             req.Limit,
		AdditionalContext: req.AdditionalContext,
	})
	if err != nil {
		s.writeDomainError(w, "discover prospects", err)
		return
	}

	items := make([]prospectResponse, 0, len(result.Prospects))
	for _, p := range result.Prospects {
		items = append(items, toProspectResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prospects": items,
		"created":   result.Created,
		"updated":   result.Updated,
	})
}

func (s *Server) handleListProspects(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	prospects, err := s.prospects.ListByBrief(r.Context(), b.ID)
	if err != nil {
		s.internalError(w, "list prospects", err)
		return
	}

	items := make([]prospectResponse, 0, len(prospects))
	for _, p := range prospects {
		items = append(items, toProspectResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleReviewProspect(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := prospect.Status(req.Status)
	if !prospect.ValidStatus(status) || status == prospect.StatusContacted {
		writeError(w, http.StatusBadRequest, "status must be pending or declined")
		return
	}

	updated, err := s.prospects.UpdateReview(r.Context(), b.ID, chi.URLParam(r, "prospectId"), status, req.Notes)
	if err != nil {
		s.writeDomainError(w, "review prospect", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"prospect": toProspectResponse(updated)})
}

func (s *Server) handleSendQuotes(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	result, err := s.dispatcher.SendQuoteRequests(r.Context(), b.ID)
	if err != nil {
		s.writeDomainError(w, "send quotes", err)
		return
	}

	sent := make([]map[string]any, 0, len(result.Sent))
	for _, rec := range result.Sent {
		sent = append(sent, map[string]any{
			"dealer":     rec.Dealer,
			"channel":    rec.Channel,
			"email":      rec.To,
			"subject":    rec.Subject,
			"messageRef": rec.MessageRef,
		})
	}
	failed := make([]map[string]any, 0, len(result.Failed))
	for _, rec := range result.Failed {
		failed = append(failed, map[string]any{
			"dealer": rec.Dealer,
			"reason": rec.Reason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sent": sent, "failed": failed})
}

type createQuoteRequest struct {
	Confidence     float64 `json:"confidence"`
	Price          int64   `json:"price"`
	MonthlyPayment int64   `json:"monthlyPayment"`
	TermMonths     int     `json:"termMonths"`
	Notes          *string `json:"notes"`
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	actor, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}
	if actor.Role != brief.RoleOps {
		writeError(w, http.StatusForbidden, "quotes are drafted by ops")
		return
	}

	var req createQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.quotes.Create(r.Context(), quote.CreateParams{
		BriefID:        b.ID,
		Confidence:     req.Confidence,
		Price:          req.Price,
		MonthlyPayment: req.MonthlyPayment,
		TermMonths:     req.TermMonths,
		Notes:          req.Notes,
	})
	if err != nil {
		s.writeDomainError(w, "create quote", err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuoteResponse(rec))
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	_, b, ok := s.loadOwnedBrief(w, r)
	if !ok {
		return
	}

	records, err := s.quotes.List(r.Context(), b.ID)
	if err != nil {
		s.internalError(w, "list quotes", err)
		return
	}

	items := make([]quoteResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toQuoteResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleQuoteAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing authentication")
			return
		}

		quoteID := chi.URLParam(r, "id")
		rec, err := s.quotes.Get(r.Context(), quoteID)
		if err != nil {
			s.writeDomainError(w, "load quote", err)
			return
		}
		// The quote's brief decides who may act on it.
		if _, err := s.briefs.Get(r.Context(), rec.BriefID, actor); err != nil {
			s.writeDomainError(w, "load brief", err)
			return
		}

		switch action {
		case "publish":
			rec, err = s.quotes.Publish(r.Context(), quoteID)
		case "accept":
			rec, err = s.quotes.Accept(r.Context(), quoteID)
		case "reject":
			rec, err = s.quotes.Reject(r.Context(), quoteID)
		}
		if err != nil {
			s.writeDomainError(w, "quote "+action, err)
			return
		}
		writeJSON(w, http.StatusOK, toQuoteResponse(rec))
	}
}

// loadOwnedBrief resolves {id} and enforces ownership, writing the error
// response itself when the brief is unavailable to the caller.
func (s *Server) loadOwnedBrief(w http.ResponseWriter, r *http.Request) (brief.Actor, brief.Brief, bool) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing authentication")
		return brief.Actor{}, brief.Brief{}, false
	}

	briefID := chi.URLParam(r, "id")
	if briefID == "" {
		writeError(w, http.StatusBadRequest, "missing brief id")
		return actor, brief.Brief{}, false
	}

	b, err := s.briefs.Get(r.Context(), briefID, actor)
	if err != nil {
		s.writeDomainError(w, "load brief", err)
		return actor, brief.Brief{}, false
	}
	return actor, b, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, brief.ErrNotFound),
		errors.Is(err, prospect.ErrNotFound),
		errors.Is(err, quote.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, brief.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, prospect.ErrValidation),
		errors.Is(err, brief.ErrUnknownStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, brief.ErrInvalidTransition),
		errors.Is(err, quote.ErrBadStatus),
		errors.Is(err, quote.ErrAcceptedExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, prospect.ErrUpstream):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.internalError(w, op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

type briefResponse struct {
	ID                 string   `json:"id"`
	Status             string   `json:"status"`
	Zip                string   `json:"zip"`
	PaymentType        string   `json:"paymentType"`
	BudgetCeiling      int64    `json:"budgetCeiling"`
	Makes              []string `json:"makes"`
	Models             []string `json:"models"`
	Trims              []string `json:"trims"`
	Colors             []string `json:"colors"`
	MustHaves          []string `json:"mustHaves"`
	TimelinePreference string   `json:"timelinePreference"`
	DownPayment        int64    `json:"downPayment"`
	MonthlyBudget      int64    `json:"monthlyBudget"`
	TermMonths         int      `json:"termMonths"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

func toBriefResponse(b brief.Brief) briefResponse {
	return briefResponse{
		ID:                 b.ID,
		Status:             string(b.Status),
		Zip:                b.Zip,
		PaymentType:        b.PaymentType,
		BudgetCeiling:      b.BudgetCeiling,
		Makes:              b.Makes,
		Models:             b.Models,
		Trims:              b.Trims,
		Colors:             b.Colors,
		MustHaves:          b.MustHaves,
		TimelinePreference: b.TimelinePreference,
		DownPayment:        b.DownPayment,
		MonthlyBudget:      b.MonthlyBudget,
		TermMonths:         b.TermMonths,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}
}

type prospectResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Zip       string  `json:"zip"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func toProspectResponse(p prospect.DealerProspect) prospectResponse {
	return prospectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Address:   p.Address,
		City:      p.City,
		State:     p.State,
		Zip:       p.Zip,
		Email:     p.Email,
		Phone:     p.Phone,
		Status:    string(p.Status),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

type timelineEventResponse struct {
	ID        int64           `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"createdAt"`
}

type quoteResponse struct {
	ID             string  `json:"id"`
	BriefID        string  `json:"briefId"`
	Status         string  `json:"status"`
	Confidence     float64 `json:"confidence"`
	Price          int64   `json:"price"`
	MonthlyPayment int64   `json:"monthlyPayment"`
	TermMonths     int     `json:"termMonths"`
	Notes          *string `json:"notes,omitempty"`
	CreatedAt      string  `json:"createdAt"`
}

func toQuoteResponse(rec quote.Record) quoteResponse {
	return quoteResponse{
		ID:             rec.ID,
		BriefID:        rec.BriefID,
		Status:         string(rec.Status),
		Confidence:     rec.Confidence,
		Price:          rec.Price,
		MonthlyPayment: rec.MonthlyPayment,
		TermMonths:     rec.TermMonths,
		Notes:          rec.Notes,
		CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
