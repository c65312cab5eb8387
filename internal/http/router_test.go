package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/influencer-marketplace/backend/internal/auth"
	"github.com/influencer-marketplace/backend/internal/events"
	"github.com/influencer-marketplace/backend/internal/http/handlers"
	"github.com/influencer-marketplace/backend/internal/models"
	"github.com/influencer-marketplace/backend/internal/notify"
	"github.com/influencer-marketplace/backend/internal/repositories/sqlite"
	"github.com/influencer-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

const secret = "test-secret"

type testAPI struct {
	app   *fiber.App
	store *sqlite.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	log := zap.NewNop()
	catalog, err := notify.DefaultCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	stores := services.Stores{
		Users: st.Users, Influencers: st.Influencers, Campaigns: st.Campaigns,
		Engagements: st.Engagements, Notifications: st.Notifications, Audit: st.Audit,
	}
	bus := events.NewLocalBus()
	dispatcher := notify.NewPublishDispatcher(bus, log)
	engagements := services.NewEngagementService(stores, catalog, dispatcher, bus, bus, log)

	app := fiber.New()
	SetupRouter(app, RouterConfig{JWTSecret: secret, AllowedOrigins: "*", Health: st.Ping}, log, Handlers{
		Users:         handlers.NewUserHandler(st.Users, st.Influencers, log),
		Campaigns:     handlers.NewCampaignHandler(services.NewCampaignService(stores, catalog, dispatcher, log), log),
		Engagements:   handlers.NewEngagementHandler(engagements, log),
		Notifications: handlers.NewNotificationHandler(services.NewNotificationService(st.Notifications, dispatcher, log), log),
		WS:            handlers.NewWSHub(bus, engagements, log),
	})
	return &testAPI{app: app, store: st}
}

func (a *testAPI) token(t *testing.T, role models.Role, name string) (string, uuid.UUID) {
	t.Helper()
	u := &models.User{Role: role, Name: name}
	if err := a.store.Users.Upsert(context.Background(), u); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if role == models.RoleInfluencer {
		followers, city := 12000, "Mumbai"
		p := &models.Influencer{UserID: u.ID, DisplayName: name, Handle: strings.ToLower(name), FollowerCount: &followers, City: &city, Niches: []string{"beauty"}}
		if err := a.store.Influencers.Upsert(context.Background(), p); err != nil {
			t.Fatalf("upsert profile: %v", err)
		}
	}
	tok, err := auth.GenerateJWT(secret, u.ID, role, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok, u.ID
}

type envelope struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Warnings []string        `json:"warnings"`
	Error    string          `json:"error"`
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, envelope, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, raw
}

func TestEngagementFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	adminTok, _ := api.token(t, models.RoleAdmin, "Ops")
	inflTok, _ := api.token(t, models.RoleInfluencer, "Nisha")
	brandTok, _ := api.token(t, models.RoleBrand, "Glow")

	status, env, raw := api.do(t, nethttp.MethodPost, "/api/v1/campaigns", adminTok, map[string]any{
		"name": "Festive Glow", "deliverables": "1 Reel + 1 Story", "base_payout": 800000,
		"can_negotiate": true, "status": "active",
	})
	if status != nethttp.StatusCreated {
		t.Fatalf("create campaign: %d %s", status, raw)
	}
	var created struct {
		Campaign models.Campaign `json:"campaign"`
		Notified int             `json:"notified"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode campaign: %v", err)
	}
	if created.Notified != 1 {
		t.Errorf("notified = %d, want 1", created.Notified)
	}
	cid := created.Campaign.ID.String()

	if status, _, _ := api.do(t, nethttp.MethodPost, "/api/v1/campaigns", inflTok, map[string]any{"name": "x"}); status != nethttp.StatusForbidden {
		t.Errorf("influencer create campaign = %d, want 403", status)
	}

	status, env, raw = api.do(t, nethttp.MethodPost, "/api/v1/campaigns/"+cid+"/apply", inflTok, nil)
	if status != nethttp.StatusCreated {
		t.Fatalf("apply: %d %s", status, raw)
	}
	var eng models.Engagement
	_ = json.Unmarshal(env.Data, &eng)

	if status, env, _ := api.do(t, nethttp.MethodPost, "/api/v1/campaigns/"+cid+"/apply", inflTok, nil); status != nethttp.StatusConflict || env.Error == "" {
		t.Errorf("second apply = %d %q, want 409 with reason", status, env.Error)
	}

	eid := eng.ID.String()
	if status, _, _ := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/accept-base", inflTok, nil); status != nethttp.StatusUnprocessableEntity {
		t.Errorf("accept-base from applied = %d, want 422", status)
	}
	if status, _, _ := api.do(t, nethttp.MethodGet, "/api/v1/engagements/"+eid, brandTok, nil); status != nethttp.StatusForbidden {
		t.Errorf("brand reading admin campaign row = %d, want 403", status)
	}

	status, _, raw = api.do(t, nethttp.MethodPost, "/api/v1/campaigns/"+cid+"/shortlist", adminTok, map[string]any{"selected_ids": []string{eid}})
	if status != nethttp.StatusOK {
		t.Fatalf("shortlist: %d %s", status, raw)
	}
	if status, _, _ := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/negotiate", inflTok, map[string]any{"amount": 0}); status != nethttp.StatusConflict {
		t.Errorf("negotiate without amount = %d, want 409", status)
	}
	if status, _, raw := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/negotiate", inflTok, map[string]any{"amount": 900000}); status != nethttp.StatusOK {
		t.Fatalf("negotiate: %d %s", status, raw)
	}
	status, env, raw = api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/accept-offer", adminTok, nil)
	if status != nethttp.StatusOK {
		t.Fatalf("accept offer: %d %s", status, raw)
	}
	_ = json.Unmarshal(env.Data, &eng)
	if eng.FinalPayout == nil || *eng.FinalPayout != 900000 {
		t.Errorf("final payout = %v, want 900000", eng.FinalPayout)
	}

	links := map[string]any{"links": []string{"https://ig.example/reel/1", "https://ig.example/story/1"}}
	if status, _, raw := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/submit-content", inflTok, links); status != nethttp.StatusOK {
		t.Fatalf("submit: %d %s", status, raw)
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/campaigns/"+cid+"/engagements/export.csv", nil)
	req.Header.Set("Authorization", "Bearer "+adminTok)
	resp, err := api.app.Test(req, -1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	csv, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(string(csv), "https://ig.example/reel/1") {
		t.Errorf("export = %d %s", resp.StatusCode, csv)
	}

	status, env, _ = api.do(t, nethttp.MethodGet, "/api/v1/notifications/unread-count", adminTok, nil)
	var unread struct {
		Unread int `json:"unread"`
	}
	_ = json.Unmarshal(env.Data, &unread)
	if status != nethttp.StatusOK || unread.Unread != 2 {
		t.Errorf("admin unread = %d (status %d), want negotiation_received and content_submitted", unread.Unread, status)
	}
}

func TestBrandCampaignNegotiationIsPreconditionFailure(t *testing.T) {
	api := newTestAPI(t)
	api.token(t, models.RoleAdmin, "Ops")
	inflTok, _ := api.token(t, models.RoleInfluencer, "Meera")
	brandTok, _ := api.token(t, models.RoleBrand, "Kohl Co")

	status, env, raw := api.do(t, nethttp.MethodPost, "/api/v1/campaigns", brandTok, map[string]any{
		"name": "Kajal launch", "deliverables": "1 Reel", "base_payout": 500000, "status": "active",
	})
	if status != nethttp.StatusCreated {
		t.Fatalf("create campaign: %d %s", status, raw)
	}
	var created struct {
		Campaign models.Campaign `json:"campaign"`
	}
	_ = json.Unmarshal(env.Data, &created)
	cid := created.Campaign.ID.String()

	status, env, raw = api.do(t, nethttp.MethodPost, "/api/v1/campaigns/"+cid+"/apply", inflTok, nil)
	if status != nethttp.StatusCreated {
		t.Fatalf("apply: %d %s", status, raw)
	}
	var eng models.Engagement
	_ = json.Unmarshal(env.Data, &eng)
	eid := eng.ID.String()

	// before and after shortlisting, with and without an amount
	for _, body := range []map[string]any{nil, {"amount": 0}, {"amount": 600000}} {
		if status, env, _ := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/negotiate", inflTok, body); status != nethttp.StatusConflict || env.Error == "" {
			t.Errorf("negotiate %v from applied = %d %q, want 409 with reason", body, status, env.Error)
		}
	}
	if status, _, raw := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/shortlist", brandTok, nil); status != nethttp.StatusOK {
		t.Fatalf("shortlist: %d %s", status, raw)
	}
	for _, body := range []map[string]any{nil, {"amount": 0}, {"amount": 600000}} {
		if status, env, _ := api.do(t, nethttp.MethodPost, "/api/v1/engagements/"+eid+"/negotiate", inflTok, body); status != nethttp.StatusConflict || env.Error == "" {
			t.Errorf("negotiate %v from shortlisted = %d %q, want 409 with reason", body, status, env.Error)
		}
	}
}

func TestUnauthenticatedAndBadInput(t *testing.T) {
	api := newTestAPI(t)
	adminTok, _ := api.token(t, models.RoleAdmin, "Ops")
	brandTok, _ := api.token(t, models.RoleBrand, "Glow")
	inflTok, _ := api.token(t, models.RoleInfluencer, "Nisha")
	anyEngagement := "/api/v1/engagements/" + uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health", nethttp.MethodGet, "/health", "", nethttp.StatusOK},
		{"niches are public", nethttp.MethodGet, "/api/v1/meta/niches", "", nethttp.StatusOK},
		{"no token", nethttp.MethodGet, "/api/v1/campaigns", "", nethttp.StatusUnauthorized},
		{"bad campaign id", nethttp.MethodGet, "/api/v1/campaigns/nope", adminTok, nethttp.StatusBadRequest},
		{"unknown campaign", nethttp.MethodGet, "/api/v1/campaigns/" + uuid.NewString(), adminTok, nethttp.StatusNotFound},
		{"eligibility is influencer only", nethttp.MethodGet, "/api/v1/campaigns/" + uuid.NewString() + "/eligibility", adminTok, nethttp.StatusForbidden},
		{"admin cannot apply", nethttp.MethodPost, "/api/v1/campaigns/" + uuid.NewString() + "/apply", adminTok, nethttp.StatusForbidden},
		{"influencer cannot create campaigns", nethttp.MethodPost, "/api/v1/campaigns", inflTok, nethttp.StatusForbidden},
		{"influencer cannot list applicants", nethttp.MethodGet, "/api/v1/campaigns/" + uuid.NewString() + "/engagements", inflTok, nethttp.StatusForbidden},
		{"brand cannot approve content", nethttp.MethodPost, anyEngagement + "/approve-content", brandTok, nethttp.StatusForbidden},
		{"brand cannot reject content", nethttp.MethodPost, anyEngagement + "/reject-content", brandTok, nethttp.StatusForbidden},
		{"influencer cannot approve content", nethttp.MethodPost, anyEngagement + "/approve-content", inflTok, nethttp.StatusForbidden},
		{"brand cannot counter", nethttp.MethodPost, anyEngagement + "/counter", brandTok, nethttp.StatusForbidden},
		{"admin cannot submit content", nethttp.MethodPost, anyEngagement + "/submit-content", adminTok, nethttp.StatusForbidden},
		{"admin passes review gate", nethttp.MethodPost, anyEngagement + "/approve-content", adminTok, nethttp.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, raw := api.do(t, tt.method, tt.path, tt.token, nil)
			if status != tt.want {
				t.Errorf("status = %d, want %d (%s)", status, tt.want, raw)
			}
		})
	}
}
