package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/marketplace/internal/billing"
	"github.com/geocoder89/marketplace/internal/checkout"
	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/domain/payment"
	"github.com/geocoder89/marketplace/internal/domain/user"
	"github.com/geocoder89/marketplace/internal/http/handlers"
	"github.com/geocoder89/marketplace/internal/http/middlewares"
	"github.com/geocoder89/marketplace/internal/media"
	"github.com/geocoder89/marketplace/internal/repo/memory"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUploader struct {
	err     error
	calls   int
	folder  string
	id      string
	content []byte
}

func (f *fakeUploader) Upload(_ context.Context, localPath, folder, publicID string) (string, error) {
	f.calls++
	f.folder = folder
	f.id = publicID
	f.content, _ = os.ReadFile(localPath)

	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.example/" + folder + "/" + publicID + ".png", nil
}

type fakePurchaser struct {
	purchaseFn func(ctx context.Context, buyerID, offerID, token string) (payment.Payment, error)
}

func (f *fakePurchaser) Purchase(ctx context.Context, buyerID, offerID, token string) (payment.Payment, error) {
	return f.purchaseFn(ctx, buyerID, offerID, token)
}

type testApp struct {
	router   *gin.Engine
	users    *memory.UsersRepo
	offers   *memory.OffersRepo
	uploader *fakeUploader
	buyer    *fakePurchaser
}

var offersCfg = config.OffersConfig{PriceCeiling: 100000, PageSize: 2, MaxPageSize: 100, Currency: "eur"}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{
		users:    memory.NewUsersRepo(),
		offers:   memory.NewOffersRepo(),
		uploader: &fakeUploader{},
		buyer: &fakePurchaser{purchaseFn: func(context.Context, string, string, string) (payment.Payment, error) {
			return payment.Payment{ID: "pay-1", ChargeID: "ch_1"}, nil
		}},
	}

	log := discard()
	auth := middlewares.NewAuthMiddleware(app.users, log)
	uh := handlers.NewUsersHandler(app.users, app.uploader, log)
	oh := handlers.NewOffersHandler(app.offers, app.uploader, offersCfg, log)
	ph := handlers.NewPaymentsHandler(app.buyer, log)

	r := gin.New()
	r.Use(middlewares.RequestID())
	r.POST("/user/signup", uh.SignUp)
	r.POST("/user/login", uh.Login)
	r.GET("/users", uh.List)
	r.GET("/user/:id", uh.GetByID)
	r.PUT("/user/update", auth.RequireAuth(), uh.UpdateProfile)
	r.POST("/offers/publish", auth.RequireAuth(), oh.Publish)
	r.GET("/offers/search", oh.Search)
	r.GET("/offer/:id", oh.GetByID)
	r.PUT("/offer/update", auth.RequireAuth(), oh.Update)
	r.POST("/payment", auth.RequireAuth(), ph.Pay)

	app.router = r

	return app
}

func (a *testApp) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	return w
}

func (a *testApp) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, method, path, token, strings.NewReader(body), "application/json")
}

func (a *testApp) signup(t *testing.T, name, mail string) user.Session {
	t.Helper()

	w := a.doJSON(t, http.MethodPost, "/user/signup", "", `{"name":"`+name+`","mail":"`+mail+`","password":"secret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signup: got %d body=%s", w.Code, w.Body.String())
	}

	var s user.Session
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func (a *testApp) seedOffer(t *testing.T, ownerID string, price float64) offer.Offer {
	t.Helper()

	o := offer.Offer{ID: uuid.NewString(), Title: "Shoes", Description: "Nice", Price: price, OwnerID: ownerID}
	if _, err := a.offers.Create(context.Background(), o); err != nil {
		t.Fatalf("seed offer: %v", err)
	}
	return o
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v body=%s", out, err, w.Body.String())
	}
	return out
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	return buf, mw.FormDataContentType()
}

// Users

func TestSignUpAndLogin(t *testing.T) {
	app := newTestApp(t)

	s := app.signup(t, "Alice", "A@X.com")
	if s.Token == "" || s.Mail != "a@x.com" || s.Username != "Alice" {
		t.Fatalf("unexpected session: %+v", s)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"mail":"a@x.com","password":"secret"}`, wantStatus: http.StatusOK},
		{name: "mail case", body: `{"mail":" A@X.COM ","password":"secret"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"mail":"a@x.com","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown mail", body: `{"mail":"b@x.com","password":"secret"}`, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"mail":"a@x.com"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.doJSON(t, http.MethodPost, "/user/login", "", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusOK {
				got := decode[user.Session](t, w)
				if got.Token != s.Token || got.ID != s.ID {
					t.Fatalf("login returned a different session: %+v", got)
				}
			}
		})
	}
}

func TestSignUp_DuplicateMail(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "Alice", "a@x.com")

	w := app.doJSON(t, http.MethodPost, "/user/signup", "", `{"name":"Al","mail":"A@x.com","password":"other"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409, body=%s", w.Code, w.Body.String())
	}
}

func TestSignUp_MissingField(t *testing.T) {
	app := newTestApp(t)

	w := app.doJSON(t, http.MethodPost, "/user/signup", "", `{"mail":"a@x.com","password":"secret"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	if msg := decode[handlers.APIError](t, w).Message; msg != offer.MsgMissingParameter {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestUsers_ListAndGetHideCredentials(t *testing.T) {
	app := newTestApp(t)
	s := app.signup(t, "Alice", "a@x.com")

	w := app.do(t, http.MethodGet, "/users", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), s.Token) || strings.Contains(w.Body.String(), "password") {
		t.Fatalf("list leaks credentials: %s", w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/user/"+s.ID, "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	if got := decode[user.Profile](t, w); got.ID != s.ID {
		t.Fatalf("unexpected profile %+v", got)
	}

	for _, id := range []string{"not-a-uuid", uuid.NewString()} {
		if w := app.do(t, http.MethodGet, "/user/"+id, "", nil, ""); w.Code != http.StatusNotFound {
			t.Fatalf("get %s: got %d, want 404", id, w.Code)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	app := newTestApp(t)
	s := app.signup(t, "Alice", "a@x.com")

	w := app.doJSON(t, http.MethodPut, "/user/update", s.Token, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty update: got %d", w.Code)
	}

	body, ct := multipartBody(t, map[string]string{"username": "Ally"}, "avatar", "me.png", []byte("png-bytes"))
	w = app.do(t, http.MethodPut, "/user/update", s.Token, body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("update: got %d body=%s", w.Code, w.Body.String())
	}

	got := decode[user.Profile](t, w)
	if got.Username != "Ally" || !strings.HasPrefix(got.AvatarURL, "https://cdn.example/users/"+s.ID) {
		t.Fatalf("unexpected profile %+v", got)
	}
	if app.uploader.folder != media.FolderUsers || string(app.uploader.content) != "png-bytes" {
		t.Fatalf("unexpected upload: folder=%s content=%q", app.uploader.folder, app.uploader.content)
	}
}

func TestUpdateProfile_UploadFailureKeepsProfile(t *testing.T) {
	app := newTestApp(t)
	s := app.signup(t, "Alice", "a@x.com")
	app.uploader.err = media.ErrUnavailable

	body, ct := multipartBody(t, map[string]string{"username": "Ally"}, "avatar", "me.png", []byte("png"))
	w := app.do(t, http.MethodPut, "/user/update", s.Token, body, ct)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502", w.Code)
	}

	u, err := app.users.FindByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.Username != "Alice" || u.AvatarURL != "" {
		t.Fatalf("profile changed after failed upload: %+v", u)
	}
}

// Offers

func TestPublish(t *testing.T) {
	long := strings.Repeat("x", offer.MaxTitleLen+1)

	tests := []struct {
		name       string
		token      bool
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "no auth", body: `{"title":"Shoes","description":"Nice","price":50}`, wantStatus: http.StatusUnauthorized, wantMsg: middlewares.MsgActionNotAllowed},
		{name: "valid", token: true, body: `{"title":"Shoes","description":"Nice","price":50,"size":"42"}`, wantStatus: http.StatusOK},
		{name: "missing price", token: true, body: `{"title":"Shoes","description":"Nice"}`, wantStatus: http.StatusBadRequest, wantMsg: offer.MsgMissingParameter},
		{name: "title too long", token: true, body: `{"title":"` + long + `","description":"Nice","price":50}`, wantStatus: http.StatusBadRequest, wantMsg: offer.MsgLimitsExceeded},
		{name: "price over ceiling", token: true, body: `{"title":"Shoes","description":"Nice","price":100001}`, wantStatus: http.StatusBadRequest, wantMsg: offer.MsgLimitsExceeded},
		{name: "negative price", token: true, body: `{"title":"Shoes","description":"Nice","price":-1}`, wantStatus: http.StatusBadRequest, wantMsg: offer.MsgInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			s := app.signup(t, "Alice", "a@x.com")

			token := ""
			if tt.token {
				token = s.Token
			}

			w := app.doJSON(t, http.MethodPost, "/offers/publish", token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				if msg := decode[handlers.APIError](t, w).Message; msg != tt.wantMsg {
					t.Fatalf("message %q, want %q", msg, tt.wantMsg)
				}
				if app.offers.Len() != 0 {
					t.Fatalf("rejected publish persisted an offer")
				}
				return
			}

			o := decode[offer.Offer](t, w)
			if o.OwnerID != s.ID || o.Details[offer.DetailSize] != "42" || o.Price != 50 {
				t.Fatalf("unexpected offer %+v", o)
			}
		})
	}
}

func TestPublish_WithPicture(t *testing.T) {
	app := newTestApp(t)
	s := app.signup(t, "Alice", "a@x.com")

	body, ct := multipartBody(t, map[string]string{"title": "Shoes", "description": "Nice", "price": "50"}, "picture", "shoe.png", []byte("png"))
	w := app.do(t, http.MethodPost, "/offers/publish", s.Token, body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}

	o := decode[offer.Offer](t, w)
	if o.ImageURL == "" || app.uploader.id != o.ID || app.uploader.folder != media.FolderOffers {
		t.Fatalf("picture not attached: %+v upload=%+v", o, app.uploader)
	}
}

func TestPublish_UploadFailureRemovesOffer(t *testing.T) {
	app := newTestApp(t)
	s := app.signup(t, "Alice", "a@x.com")
	app.uploader.err = errors.New("bucket gone")

	body, ct := multipartBody(t, map[string]string{"title": "Shoes", "description": "Nice", "price": "50"}, "picture", "shoe.png", []byte("png"))
	w := app.do(t, http.MethodPost, "/offers/publish", s.Token, body, ct)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("got %d, want 502", w.Code)
	}
	if app.offers.Len() != 0 {
		t.Fatalf("offer left behind after failed upload")
	}
}

func TestUpdateOffer(t *testing.T) {
	app := newTestApp(t)
	owner := app.signup(t, "Alice", "a@x.com")
	other := app.signup(t, "Bob", "b@x.com")

	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	o := offer.Offer{
		ID:          uuid.NewString(),
		Title:       "Shoes",
		Description: "Nice",
		Price:       50,
		Details:     map[string]string{offer.DetailSize: "42"},
		ImageURL:    "https://cdn.example.com/offers/shoes.png",
		OwnerID:     owner.ID,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	if _, err := app.offers.Create(context.Background(), o); err != nil {
		t.Fatalf("seed offer: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		body       string
		wantStatus int
	}{
		{name: "no auth", body: `{"id":"` + o.ID + `","price":60}`, wantStatus: http.StatusUnauthorized},
		{name: "missing id", token: owner.Token, body: `{"price":60}`, wantStatus: http.StatusBadRequest},
		{name: "nothing to update", token: owner.Token, body: `{"id":"` + o.ID + `","title":"  "}`, wantStatus: http.StatusBadRequest},
		{name: "unknown offer", token: owner.Token, body: `{"id":"` + uuid.NewString() + `","price":60}`, wantStatus: http.StatusNotFound},
		{name: "not owner", token: other.Token, body: `{"id":"` + o.ID + `","price":1}`, wantStatus: http.StatusForbidden},
		{name: "not owner, every field", token: other.Token, body: `{"id":"` + o.ID + `","title":"Mine","description":"x","price":1,"size":"44","dreamFactor":"low"}`, wantStatus: http.StatusForbidden},
		{name: "over limits", token: owner.Token, body: `{"id":"` + o.ID + `","price":1000000}`, wantStatus: http.StatusBadRequest},
		{name: "sub-cent price", token: owner.Token, body: `{"id":"` + o.ID + `","price":0.001}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.doJSON(t, http.MethodPut, "/offer/update", tt.token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			stored, err := app.offers.GetByID(context.Background(), o.ID)
			if err != nil {
				t.Fatalf("get offer: %v", err)
			}
			if !reflect.DeepEqual(stored, o) {
				t.Fatalf("offer changed by rejected update:\n got %+v\nwant %+v", stored, o)
			}
		})
	}

	w := app.doJSON(t, http.MethodPut, "/offer/update", owner.Token, `{"id":"`+o.ID+`","price":60,"dreamFactor":"high"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: got %d body=%s", w.Code, w.Body.String())
	}

	got := decode[offer.Offer](t, w)
	if got.Price != 60 || got.Title != "Shoes" || got.Description != "Nice" || got.Details[offer.DetailDreamFactor] != "high" {
		t.Fatalf("unexpected update result %+v", got)
	}
}

func TestUpdateOffer_ForbiddenMessage(t *testing.T) {
	app := newTestApp(t)
	owner := app.signup(t, "Alice", "a@x.com")
	other := app.signup(t, "Bob", "b@x.com")
	o := app.seedOffer(t, owner.ID, 50)

	w := app.doJSON(t, http.MethodPut, "/offer/update", other.Token, `{"id":"`+o.ID+`","title":"Mine"}`)
	if msg := decode[handlers.APIError](t, w).Message; msg != "Permission not granted" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSearchOffers(t *testing.T) {
	app := newTestApp(t)
	app.seedOffer(t, "u1", 10)
	dear := app.seedOffer(t, "u1", 20)

	w := app.do(t, http.MethodGet, "/offers/search?priceMin=15", "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	page := decode[offer.Page](t, w)
	if page.Count != 1 || page.Items[0].ID != dear.ID {
		t.Fatalf("unexpected page %+v", page)
	}

	w = app.do(t, http.MethodGet, "/offers/search?sort=price-desc&pageSize=1", "", nil, "")
	page = decode[offer.Page](t, w)
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].ID != dear.ID {
		t.Fatalf("unexpected sorted page %+v", page)
	}

	for _, pg := range []string{"5", "2000000000", "99999999999999999999"} {
		w = app.do(t, http.MethodGet, "/offers/search?page="+pg, "", nil, "")
		page = decode[offer.Page](t, w)
		if w.Code != http.StatusOK || len(page.Items) != 0 || page.Total != 2 {
			t.Fatalf("page %s past the end: got %d %+v", pg, w.Code, page)
		}
	}

	for _, q := range []string{"priceMin=abc", "priceMin=30&priceMax=10", "page=-1", "pageSize=0"} {
		if w := app.do(t, http.MethodGet, "/offers/search?"+q, "", nil, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d, want 400", q, w.Code)
		}
	}
}

func TestGetOffer_ETag(t *testing.T) {
	app := newTestApp(t)
	o := app.seedOffer(t, "u1", 10)

	w := app.do(t, http.MethodGet, "/offer/"+o.ID, "", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/offer/"+o.ID, nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got %d, want 304", w.Code)
	}

	if w := app.do(t, http.MethodGet, "/offer/nope", "", nil, ""); w.Code != http.StatusNotFound {
		t.Fatalf("bad id: got %d", w.Code)
	}
}

// Payments

func TestPay_ErrorMapping(t *testing.T) {
	offerID := uuid.NewString()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "ok", wantStatus: http.StatusOK},
		{name: "offer gone", err: offer.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "own offer", err: checkout.ErrOwnOffer, wantStatus: http.StatusForbidden},
		{name: "declined", err: billing.ErrChargeDeclined, wantStatus: http.StatusBadGateway},
		{name: "processor down", err: billing.ErrProcessorUnavailable, wantStatus: http.StatusBadGateway},
		{name: "not recorded", err: checkout.ErrSaleNotRecorded, wantStatus: http.StatusBadGateway},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			s := app.signup(t, "Alice", "a@x.com")

			var gotBuyer, gotOffer, gotToken string
			app.buyer.purchaseFn = func(_ context.Context, buyerID, id, token string) (payment.Payment, error) {
				gotBuyer, gotOffer, gotToken = buyerID, id, token
				if tt.err != nil {
					return payment.Payment{}, tt.err
				}
				return payment.Payment{ID: "pay-1", ChargeID: "ch_1"}, nil
			}

			w := app.doJSON(t, http.MethodPost, "/payment", s.Token, `{"id":"`+offerID+`","stripeToken":"tok_visa"}`)
			if w.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if gotBuyer != s.ID || gotOffer != offerID || gotToken != "tok_visa" {
				t.Fatalf("unexpected purchase args %q %q %q", gotBuyer, gotOffer, gotToken)
			}

			if tt.wantStatus == http.StatusOK {
				r := decode[payment.Receipt](t, w)
				if r.PaymentID != "pay-1" || r.ChargeID != "ch_1" {
					t.Fatalf("unexpected receipt %+v", r)
				}
			}
		})
	}
}

func TestPay_Validation(t *testing.T) {
	app := newTestApp(t)
	s := app.signup(t, "Alice", "a@x.com")

	if w := app.doJSON(t, http.MethodPost, "/payment", s.Token, `{"id":"`+uuid.NewString()+`"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing token: got %d", w.Code)
	}
	if w := app.doJSON(t, http.MethodPost, "/payment", s.Token, `{"id":"nope","stripeToken":"tok"}`); w.Code != http.StatusNotFound {
		t.Fatalf("bad id: got %d", w.Code)
	}
	if w := app.doJSON(t, http.MethodPost, "/payment", "", `{"id":"x","stripeToken":"tok"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("no auth: got %d", w.Code)
	}
}
