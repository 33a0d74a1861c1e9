package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dealbrief/auth"
	"dealbrief/automation"
	"dealbrief/brief"
	"dealbrief/invite"
	"dealbrief/prospect"
	"dealbrief/quote"
)

type stubBriefService struct {
	created   brief.Brief
	createErr error
	got       brief.Brief
	getErr    error
	list      brief.ListResult
	listErr   error
}

func (s *stubBriefService) Create(_ context.Context, _ brief.CreateParams) (brief.Brief, error) {
	return s.created, s.createErr
}

func (s *stubBriefService) Get(_ context.Context, _ string, _ brief.Actor) (brief.Brief, error) {
	return s.got, s.getErr
}

func (s *stubBriefService) List(_ context.Context, _ brief.Filters, _ brief.Actor) (brief.ListResult, error) {
	return s.list, s.listErr
}

type stubStatusService struct {
	result brief.Brief
	err    error
}

func (s *stubStatusService) Set(_ context.Context, _ brief.TransitionParams) (brief.Brief, error) {
	return s.result, s.err
}

type stubTimeline struct {
	events []brief.TimelineEvent
	err    error
}

func (s *stubTimeline) List(_ context.Context, _ string) ([]brief.TimelineEvent, error) {
	return s.events, s.err
}

type stubDiscovery struct {
	result prospect.DiscoverResult
	err    error
}

func (s *stubDiscovery) Discover(_ context.Context, _ prospect.DiscoverParams) (prospect.DiscoverResult, error) {
	return s.result, s.err
}

type stubDispatcher struct {
	result prospect.DispatchResult
	err    error
}

func (s *stubDispatcher) SendQuoteRequests(_ context.Context, _ string) (prospect.DispatchResult, error) {
	return s.result, s.err
}

type stubProspectStore struct {
	prospects []prospect.DealerProspect
	listErr   error
	reviewed  prospect.DealerProspect
	reviewErr error
}

func (s *stubProspectStore) ListByBrief(_ context.Context, _ string) ([]prospect.DealerProspect, error) {
	return s.prospects, s.listErr
}

func (s *stubProspectStore) UpdateReview(_ context.Context, _, _ string, _ prospect.Status, _ *string) (prospect.DealerProspect, error) {
	return s.reviewed, s.reviewErr
}

type stubOrchestrator struct {
	report automation.Report
	err    error
}

func (s *stubOrchestrator) Run(_ context.Context, _ automation.RunParams) (automation.Report, error) {
	return s.report, s.err
}

type stubQuoteService struct {
	got    quote.Record
	getErr error
	record quote.Record
	err    error
	list   []quote.Record
}

func (s *stubQuoteService) Create(_ context.Context, _ quote.CreateParams) (quote.Record, error) {
	return s.record, s.err
}

func (s *stubQuoteService) Get(_ context.Context, _ string) (quote.Record, error) {
	return s.got, s.getErr
}

func (s *stubQuoteService) Publish(_ context.Context, _ string) (quote.Record, error) {
	return s.record, s.err
}

func (s *stubQuoteService) Accept(_ context.Context, _ string) (quote.Record, error) {
	return s.record, s.err
}

func (s *stubQuoteService) Reject(_ context.Context, _ string) (quote.Record, error) {
	return s.record, s.err
}

func (s *stubQuoteService) List(_ context.Context, _ string) ([]quote.Record, error) {
	return s.list, s.err
}

type stubAuthService struct {
	user        *auth.User
	registerErr error
	login       auth.LoginResult
	loginErr    error
	verifyID    string
	verifyRole  auth.Role
	verifyErr   error
}

func (s *stubAuthService) Register(_ context.Context, _ auth.RegisterRequest) (*auth.User, error) {
	return s.user, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, _ auth.LoginRequest) (auth.LoginResult, error) {
	return s.login, s.loginErr
}

func (s *stubAuthService) VerifyToken(_ string) (string, auth.Role, error) {
	return s.verifyID, s.verifyRole, s.verifyErr
}

type stubInviteService struct {
	entry invite.WaitlistEntry
	err   error
}

func (s *stubInviteService) JoinWaitlist(_ context.Context, _ string) (invite.WaitlistEntry, error) {
	return s.entry, s.err
}

func buyerAuth() *stubAuthService {
	return &stubAuthService{verifyID: "u1", verifyRole: auth.RoleBuyer}
}

func opsAuth() *stubAuthService {
	return &stubAuthService{verifyID: "ops1", verifyRole: auth.RoleOps}
}

func doRequest(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)
	return rec
}

func sampleBrief(now time.Time) brief.Brief {
	return brief.Brief{
		ID:            "b1",
		BuyerUserID:   "u1",
		Status:        brief.StatusSourcing,
		Zip:           "94110",
		PaymentType:   "cash",
		BudgetCeiling: 4200000,
		Makes:         []string{"Toyota"},
		Models:        []string{"RAV4"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	server := &Server{auth: buyerAuth()}

	req := httptest.NewRequest(http.MethodGet, "/api/briefs", nil)
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_BadToken(t *testing.T) {
	server := &Server{auth: &stubAuthService{verifyErr: errors.New("auth: token expired")}}

	req := httptest.NewRequest(http.MethodGet, "/api/briefs", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandleCreateBrief_Success(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{created: sampleBrief(now)},
	}

	body := `{"zip":"94110","paymentType":"cash","budgetCeiling":4200000,"makes":["Toyota"],"models":["RAV4"]}`
	rec := doRequest(t, server, http.MethodPost, "/api/briefs", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp briefResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "b1" || resp.Status != "sourcing" || resp.Zip != "94110" {
		t.Fatalf("unexpected response payload: %+v", resp)
	}
	if resp.CreatedAt != now.Format(time.RFC3339) {
		t.Fatalf("unexpected createdAt: %s", resp.CreatedAt)
	}
}

func TestHandleCreateBrief_ValidationError(t *testing.T) {
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{createErr: errors.New("brief: zip must be 5 digits")},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs", `{"zip":"bad"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleBrief_NotFound(t *testing.T) {
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{getErr: brief.ErrNotFound},
	}

	rec := doRequest(t, server, http.MethodGet, "/api/briefs/missing", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleBrief_Forbidden(t *testing.T) {
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{getErr: brief.ErrForbidden},
	}

	rec := doRequest(t, server, http.MethodGet, "/api/briefs/b1", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestHandleSetStatus_InvalidTransition(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		status: &stubStatusService{err: brief.ErrInvalidTransition},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/status", `{"status":"sourcing"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSetStatus_Success(t *testing.T) {
	now := time.Now().UTC()
	updated := sampleBrief(now)
	updated.Status = brief.StatusOffers
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		status: &stubStatusService{result: updated},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/status", `{"status":"offers"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp briefResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "offers" {
		t.Fatalf("expected status offers, got %s", resp.Status)
	}
}

func TestHandleTimeline_Success(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		timeline: &stubTimeline{events: []brief.TimelineEvent{
			{ID: 1, BriefID: "b1", Type: brief.EventBriefCreated, Payload: []byte(`{}`), CreatedAt: now},
			{ID: 2, BriefID: "b1", Type: brief.EventStatusChanged, Payload: []byte(`{"next_status":"offers"}`), CreatedAt: now.Add(time.Minute)},
		}},
	}

	rec := doRequest(t, server, http.MethodGet, "/api/briefs/b1/timeline", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Items []timelineEventResponse `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 || resp.Items[0].Type != brief.EventBriefCreated {
		t.Fatalf("unexpected timeline payload: %+v", resp.Items)
	}
}

func TestHandleAutomate_Success(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		orchestrator: &stubOrchestrator{report: automation.Report{
			BriefID:    "b1",
			Discovered: 5,
			Contacted:  4,
			Failed:     1,
		}},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/automate", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success    bool   `json:"success"`
		BriefID    string `json:"briefId"`
		Discovered int    `json:"discovered"`
		Contacted  int    `json:"contacted"`
		Failed     int    `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.BriefID != "b1" || resp.Contacted != 4 || resp.Failed != 1 {
		t.Fatalf("unexpected automation payload: %+v", resp)
	}
}

func TestHandleAutomate_UpstreamFailure(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:         buyerAuth(),
		briefs:       &stubBriefService{got: sampleBrief(now)},
		orchestrator: &stubOrchestrator{err: prospect.ErrUpstream},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/automate", "")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected failure payload, got %+v", resp)
	}
}

func TestHandleDiscoverProspects_Validation(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:      buyerAuth(),
		briefs:    &stubBriefService{got: sampleBrief(now)},
		discovery: &stubDiscovery{err: prospect.ErrValidation},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/dealer-prospects", `{"driveHours":99}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleDiscoverProspects_Success(t *testing.T) {
	now := time.Now().UTC()
	email := "sales@citytoyota.example"
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		discovery: &stubDiscovery{result: prospect.DiscoverResult{
			Prospects: []prospect.DealerProspect{
				{ID: "p1", BriefID: "b1", Name: "City Toyota", Email: &email, Status: prospect.StatusPending, CreatedAt: now},
			},
			Created: 1,
		}},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/dealer-prospects", `{"driveHours":2}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Prospects []prospectResponse `json:"prospects"`
		Created   int                `json:"created"`
		Updated   int                `json:"updated"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Created != 1 || len(resp.Prospects) != 1 || resp.Prospects[0].Name != "City Toyota" {
		t.Fatalf("unexpected discovery payload: %+v", resp)
	}
}

func TestHandleReviewProspect_RejectsContacted(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:      buyerAuth(),
		briefs:    &stubBriefService{got: sampleBrief(now)},
		prospects: &stubProspectStore{},
	}

	rec := doRequest(t, server, http.MethodPatch, "/api/briefs/b1/dealer-prospects/p1", `{"status":"contacted"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleSendQuotes_PartialFailure(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		dispatcher: &stubDispatcher{result: prospect.DispatchResult{
			Sent: []prospect.SentRecord{
				{ProspectID: "p1", Dealer: "City Toyota", Channel: "email", To: "sales@citytoyota.example", Subject: "Quote request: Toyota RAV4", MessageRef: "msg-1"},
			},
			Failed: []prospect.FailedRecord{
				{ProspectID: "p2", Dealer: "Bay Honda", Reason: "send email: 500"},
			},
		}},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/send-quotes", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool `json:"success"`
		Sent    []struct {
			Dealer string `json:"dealer"`
			Email  string `json:"email"`
		} `json:"sent"`
		Failed []struct {
			Dealer string `json:"dealer"`
			Reason string `json:"reason"`
		} `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || len(resp.Sent) != 1 || len(resp.Failed) != 1 {
		t.Fatalf("unexpected dispatch payload: %+v", resp)
	}
	if resp.Failed[0].Dealer != "Bay Honda" || resp.Failed[0].Reason == "" {
		t.Fatalf("unexpected failed record: %+v", resp.Failed[0])
	}
}

func TestHandleCreateQuote_BuyerForbidden(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		quotes: &stubQuoteService{},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/quotes", `{"price":4000000}`)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestHandleCreateQuote_Ops(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	server := &Server{
		auth:   opsAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		quotes: &stubQuoteService{record: quote.Record{
			ID:        "q1",
			BriefID:   "b1",
			Status:    quote.StatusDraft,
			Price:     4000000,
			CreatedAt: now,
		}},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/briefs/b1/quotes", `{"price":4000000,"confidence":0.8}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp quoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "q1" || resp.Status != "draft" || resp.Price != 4000000 {
		t.Fatalf("unexpected quote payload: %+v", resp)
	}
}

func TestHandleQuoteAccept_Conflict(t *testing.T) {
	now := time.Now().UTC()
	server := &Server{
		auth:   opsAuth(),
		briefs: &stubBriefService{got: sampleBrief(now)},
		quotes: &stubQuoteService{
			got: quote.Record{ID: "q2", BriefID: "b1", Status: quote.StatusPublished},
			err: quote.ErrAcceptedExists,
		},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/quotes/q2/accept", "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestHandleQuoteAccept_NonOwnerForbidden(t *testing.T) {
	server := &Server{
		auth:   buyerAuth(),
		briefs: &stubBriefService{getErr: brief.ErrForbidden},
		quotes: &stubQuoteService{
			got:    quote.Record{ID: "q9", BriefID: "b-other", Status: quote.StatusPublished},
			record: quote.Record{ID: "q9", BriefID: "b-other", Status: quote.StatusAccepted},
		},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/quotes/q9/accept", "")

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleQuoteAction_UnknownQuote(t *testing.T) {
	server := &Server{
		auth:   buyerAuth(),
		quotes: &stubQuoteService{getErr: quote.ErrNotFound},
	}

	rec := doRequest(t, server, http.MethodPost, "/api/quotes/missing/publish", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleRegister_InviteGate(t *testing.T) {
	server := &Server{auth: &stubAuthService{registerErr: auth.ErrInviteRequired}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@b.co","password":"longenough"}`))
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestHandleWaitlist_Duplicate(t *testing.T) {
	server := &Server{
		auth:    buyerAuth(),
		invites: &stubInviteService{err: invite.ErrAlreadyListed},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/waitlist", strings.NewReader(`{"email":"a@b.co"}`))
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}
