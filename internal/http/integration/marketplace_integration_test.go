package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/marketplace/internal/billing"
	"github.com/geocoder89/marketplace/internal/cache"
	"github.com/geocoder89/marketplace/internal/checkout"
	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	httpx "github.com/geocoder89/marketplace/internal/http"
	"github.com/geocoder89/marketplace/internal/jobs"
	"github.com/geocoder89/marketplace/internal/observability"
	"github.com/geocoder89/marketplace/internal/repo/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProcessor struct {
	err     error
	charges []billing.ChargeRequest
}

func (s *stubProcessor) Charge(_ context.Context, req billing.ChargeRequest) (billing.Charge, error) {
	s.charges = append(s.charges, req)
	if s.err != nil {
		return billing.Charge{}, s.err
	}
	return billing.Charge{ID: "ch_test", AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "succeeded"}, nil
}

type stack struct {
	server    *httptest.Server
	users     *memory.UsersRepo
	offers    *memory.OffersRepo
	payments  *memory.PaymentsRepo
	jobs      *memory.JobsRepo
	processor *stubProcessor
	reg       *prometheus.Registry
}

func newStack(t *testing.T) *stack {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	s := &stack{
		users:     memory.NewUsersRepo(),
		offers:    memory.NewOffersRepo(),
		jobs:      memory.NewJobsRepo(),
		processor: &stubProcessor{},
		reg:       reg,
	}
	s.payments = memory.NewPaymentsRepo(s.offers, s.jobs)

	cached := cache.NewCachedOffers(s.offers, cache.NewMemory(time.Minute), log, prom)

	svc := checkout.NewService(checkout.Deps{
		Offers:    s.offers,
		Sales:     s.payments,
		Jobs:      s.jobs,
		Processor: s.processor,
		Cache:     cached,
		Currency:  "eur",
		Log:       log,
		Prom:      prom,
	})

	router := httpx.NewRouter(httpx.Deps{
		Config: config.Config{
			Env:             "test",
			OTELServiceName: "marketplace-test",
			MaxBodyBytes:    1 << 20,
			Offers:          config.OffersConfig{PriceCeiling: 100000, PageSize: 2, MaxPageSize: 100, Currency: "eur"},
		},
		Log:      log,
		Prom:     prom,
		Gatherer: reg,
		Users:    s.users,
		Offers:   cached,
		Checkout: svc,
	})

	s.server = httptest.NewServer(router)
	t.Cleanup(s.server.Close)

	return s
}

func (s *stack) call(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, s.server.URL+path, rdr)
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body=%s", raw)
	}

	return resp.StatusCode, out
}

func (s *stack) signup(t *testing.T, name, mail, password string) string {
	t.Helper()

	status, body := s.call(t, http.MethodPost, "/user/signup", "",
		`{"name":"`+name+`","mail":"`+mail+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, status, body)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	return token
}

func (s *stack) publish(t *testing.T, token, title string, price string) string {
	t.Helper()

	status, body := s.call(t, http.MethodPost, "/offers/publish", token,
		`{"title":"`+title+`","description":"Nice","price":`+price+`}`)
	require.Equal(t, http.StatusOK, status, body)

	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	return id
}

func TestSignupThenLoginReturnsSameToken(t *testing.T) {
	s := newStack(t)

	token := s.signup(t, "Alice", "a@x.com", "secret")

	status, body := s.call(t, http.MethodPost, "/user/login", "", `{"mail":"a@x.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, token, body["token"])

	status, _ = s.call(t, http.MethodPost, "/user/login", "", `{"mail":"a@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.call(t, http.MethodPost, "/user/signup", "", `{"name":"Other","mail":"a@x.com","password":"x"}`)
	assert.Equal(t, http.StatusConflict, status)
}

func TestPublishWithoutAuth(t *testing.T) {
	s := newStack(t)

	status, body := s.call(t, http.MethodPost, "/offers/publish", "", `{"title":"Shoes","description":"Nice","price":50}`)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Action not allowed", body["message"])

	status, body = s.call(t, http.MethodPost, "/offers/publish", "not-a-token", `{"title":"Shoes","description":"Nice","price":50}`)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Action not allowed", body["message"])

	assert.Zero(t, s.offers.Len())
}

func TestPublishTitleTooLong(t *testing.T) {
	s := newStack(t)
	token := s.signup(t, "Alice", "a@x.com", "secret")

	title := strings.Repeat("t", 51)
	status, body := s.call(t, http.MethodPost, "/offers/publish", token,
		`{"title":"`+title+`","description":"Nice","price":50}`)

	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, offer.MsgLimitsExceeded, body["message"])
	assert.Zero(t, s.offers.Len())
}

func TestSearchByMinimumPrice(t *testing.T) {
	s := newStack(t)
	token := s.signup(t, "Alice", "a@x.com", "secret")

	s.publish(t, token, "Cheap", "10")
	dear := s.publish(t, token, "Dear", "20")

	status, body := s.call(t, http.MethodGet, "/offers/search?priceMin=15", "", "")
	require.Equal(t, http.StatusOK, status)

	items, _ := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, dear, items[0].(map[string]any)["id"])
}

func TestPaymentRemovesOfferAndRecordsPayment(t *testing.T) {
	s := newStack(t)
	seller := s.signup(t, "Alice", "a@x.com", "secret")
	buyer := s.signup(t, "Bob", "b@x.com", "secret")

	id := s.publish(t, seller, "Shoes", "50")

	// warm the read cache so the sale has to invalidate it
	status, _ := s.call(t, http.MethodGet, "/offer/"+id, "", "")
	require.Equal(t, http.StatusOK, status)

	status, body := s.call(t, http.MethodPost, "/payment", buyer, `{"id":"`+id+`","stripeToken":"tok_visa"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "ch_test", body["chargeId"])

	require.Len(t, s.processor.charges, 1)
	assert.Equal(t, int64(5000), s.processor.charges[0].AmountMinor)

	all := s.payments.All()
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].Offer.ID)

	status, _ = s.call(t, http.MethodGet, "/offer/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, status)

	queued := s.jobs.All()
	require.Len(t, queued, 1)
	assert.Equal(t, string(jobs.JobOfferSold), queued[0].Type)

	// a second purchase of the same offer finds nothing
	status, _ = s.call(t, http.MethodPost, "/payment", buyer, `{"id":"`+id+`","stripeToken":"tok_visa"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Len(t, s.payments.All(), 1)
}

func TestFailedChargeKeepsOffer(t *testing.T) {
	s := newStack(t)
	seller := s.signup(t, "Alice", "a@x.com", "secret")
	buyer := s.signup(t, "Bob", "b@x.com", "secret")

	id := s.publish(t, seller, "Shoes", "50")
	s.processor.err = billing.ErrChargeDeclined

	status, _ := s.call(t, http.MethodPost, "/payment", buyer, `{"id":"`+id+`","stripeToken":"tok_chargeDeclined"}`)
	assert.Equal(t, http.StatusBadGateway, status)

	assert.Empty(t, s.payments.All())
	assert.Empty(t, s.jobs.All())

	status, _ = s.call(t, http.MethodGet, "/offer/"+id, "", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestSellerCannotBuyOwnOffer(t *testing.T) {
	s := newStack(t)
	seller := s.signup(t, "Alice", "a@x.com", "secret")
	id := s.publish(t, seller, "Shoes", "50")

	status, _ := s.call(t, http.MethodPost, "/payment", seller, `{"id":"`+id+`","stripeToken":"tok_visa"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Empty(t, s.processor.charges)
	assert.Equal(t, 1, s.offers.Len())
}

func TestUnknownRoute(t *testing.T) {
	s := newStack(t)

	status, body := s.call(t, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route not found, please try another request.", body["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newStack(t)

	status, _ := s.call(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.call(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, status)

	resp, err := http.Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "marketplace_http_requests_total")
}
