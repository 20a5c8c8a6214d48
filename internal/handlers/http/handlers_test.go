package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/cpatton716/collectors-catalog/internal/auth"
	"github.com/cpatton716/collectors-catalog/internal/database"
	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

type stubEngine struct {
	settlePurchase func(ctx context.Context, kind, itemID, buyerID string) (string, error)
	placeBid       func(ctx context.Context, auctionID, bidderID string, amount int64) (string, error)
}

func (s *stubEngine) SettlePurchase(ctx context.Context, kind, itemID, buyerID string) (string, error) {
	return s.settlePurchase(ctx, kind, itemID, buyerID)
}

func (s *stubEngine) PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (string, error) {
	return s.placeBid(ctx, auctionID, bidderID, amount)
}

// stubStore overrides only the Service methods a test touches; anything else
// panics through the embedded nil interface, which catches unexpected access.
type stubStore struct {
	database.Service
	createListing func(ctx context.Context, listing types.Listing) (types.Listing, error)
	listListings  func(ctx context.Context, limit int) ([]types.Listing, error)
	getProfile    func(ctx context.Context, id string) (types.Profile, error)
	unreadCount   func(ctx context.Context, profileID string) (int, error)
	getListing    func(ctx context.Context, id string) (types.Listing, error)
	cancelListing func(ctx context.Context, id string) error
}

func (s *stubStore) CreateListing(ctx context.Context, listing types.Listing) (types.Listing, error) {
	return s.createListing(ctx, listing)
}

func (s *stubStore) ListAvailableListings(ctx context.Context, limit int) ([]types.Listing, error) {
	return s.listListings(ctx, limit)
}

func (s *stubStore) GetProfileByID(ctx context.Context, id string) (types.Profile, error) {
	return s.getProfile(ctx, id)
}

func (s *stubStore) UnreadCount(ctx context.Context, profileID string) (int, error) {
	return s.unreadCount(ctx, profileID)
}

func (s *stubStore) GetListingByID(ctx context.Context, id string) (types.Listing, error) {
	return s.getListing(ctx, id)
}

func (s *stubStore) CancelListing(ctx context.Context, id string) error {
	return s.cancelListing(ctx, id)
}

var (
	buyerProfile = types.Profile{ID: "p-buyer", Username: "buyer-1a2b3c4d", Role: types.RoleUser}
	adminProfile = types.Profile{ID: "p-admin", Username: "mod-9z8y7x6w", Role: types.RoleAdmin}
)

// newTestRouter wires the handler routes with the given profile already
// resolved, standing in for the session middleware.
func newTestRouter(db database.Service, engine SettlementEngine, profile types.Profile) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(profileContextKey, profile) })

	h := NewHandler(db, engine)
	router.GET("/api/listings", h.ListListings)
	router.POST("/api/listings", h.CreateListing)
	router.POST("/api/listings/:id/purchase", h.PurchaseListing)
	router.POST("/api/auctions/:id/buy-now", h.BuyNow)
	router.POST("/api/auctions/:id/bids", h.PlaceBid)
	router.GET("/api/username/current", h.CurrentUsername)
	router.POST("/api/messages", h.SendMessage)
	router.GET("/api/messages/unread-count", h.UnreadCount)

	admin := router.Group("/api/admin")
	admin.Use(RequireAdmin())
	admin.POST("/listings/:id/cancel", h.CancelListing)

	return router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPurchaseListing(t *testing.T) {
	engine := &stubEngine{
		settlePurchase: func(_ context.Context, kind, itemID, buyerID string) (string, error) {
			require.Equal(t, types.ItemListing, kind)
			require.Equal(t, "l1", itemID)
			require.Equal(t, buyerProfile.ID, buyerID)
			return "txn-1", nil
		},
	}
	router := newTestRouter(&stubStore{}, engine, buyerProfile)

	w := perform(router, http.MethodPost, "/api/listings/l1/purchase", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "txn-1", body["transactionId"])
}

func TestPurchaseListing_ErrorStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", apperrors.New(apperrors.ErrNotFound, "listing not found"), http.StatusNotFound},
		{"not available", apperrors.New(apperrors.ErrNotAvailable, "listing is not available"), http.StatusBadRequest},
		{"self purchase", apperrors.New(apperrors.ErrSelfPurchase, "sellers cannot buy their own listings"), http.StatusBadRequest},
		{"retries exhausted", apperrors.New(apperrors.ErrConflict, "settlement retries exhausted"), http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{
				settlePurchase: func(context.Context, string, string, string) (string, error) {
					return "", tc.err
				},
			}
			router := newTestRouter(&stubStore{}, engine, buyerProfile)

			w := perform(router, http.MethodPost, "/api/listings/l1/purchase", "")
			require.Equal(t, tc.wantStatus, w.Code)

			body := decodeBody(t, w)
			require.NotEmpty(t, body["error"])
			require.EqualValues(t, apperrors.CodeOf(tc.err), body["code"])
		})
	}
}

func TestBuyNow(t *testing.T) {
	engine := &stubEngine{
		settlePurchase: func(_ context.Context, kind, itemID, buyerID string) (string, error) {
			require.Equal(t, types.ItemAuction, kind)
			require.Equal(t, "a1", itemID)
			return "txn-2", nil
		},
	}
	router := newTestRouter(&stubStore{}, engine, buyerProfile)

	w := perform(router, http.MethodPost, "/api/auctions/a1/buy-now", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "txn-2", decodeBody(t, w)["transactionId"])
}

func TestPlaceBid(t *testing.T) {
	engine := &stubEngine{
		placeBid: func(_ context.Context, auctionID, bidderID string, amount int64) (string, error) {
			require.Equal(t, "a1", auctionID)
			require.Equal(t, buyerProfile.ID, bidderID)
			require.Equal(t, int64(7500), amount)
			return "bid-1", nil
		},
	}
	router := newTestRouter(&stubStore{}, engine, buyerProfile)

	w := perform(router, http.MethodPost, "/api/auctions/a1/bids", `{"amount": 7500}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, "bid-1", body["bidId"])
}

func TestPlaceBid_InvalidAmount(t *testing.T) {
	engine := &stubEngine{
		placeBid: func(context.Context, string, string, int64) (string, error) {
			t.Fatal("engine must not be called for an invalid amount")
			return "", nil
		},
	}
	router := newTestRouter(&stubStore{}, engine, buyerProfile)

	for _, body := range []string{`{"amount": 0}`, `{"amount": -5}`, `not json`} {
		w := perform(router, http.MethodPost, "/api/auctions/a1/bids", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestPlaceBid_Outbid(t *testing.T) {
	engine := &stubEngine{
		placeBid: func(context.Context, string, string, int64) (string, error) {
			return "", apperrors.New(apperrors.ErrOutbid, "bid does not beat the current highest bid")
		},
	}
	router := newTestRouter(&stubStore{}, engine, buyerProfile)

	w := perform(router, http.MethodPost, "/api/auctions/a1/bids", `{"amount": 7500}`)
	require.Equal(t, http.StatusConflict, w.Code)
	require.EqualValues(t, apperrors.ErrOutbid, decodeBody(t, w)["code"])
}

func TestCreateListing(t *testing.T) {
	store := &stubStore{
		createListing: func(_ context.Context, listing types.Listing) (types.Listing, error) {
			require.Equal(t, buyerProfile.ID, listing.SellerID)
			require.NotEmpty(t, listing.ID)
			listing.Status = types.ListingAvailable
			return listing, nil
		},
	}
	router := newTestRouter(store, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodPost, "/api/listings",
		`{"title": "Incredible Hulk", "issue": "#181", "grade": "CGC 9.2", "price": 350000}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "Incredible Hulk", body["title"])
	require.Equal(t, types.ListingAvailable, body["status"])
}

func TestCreateListing_Invalid(t *testing.T) {
	store := &stubStore{
		createListing: func(context.Context, types.Listing) (types.Listing, error) {
			t.Fatal("store must not be called for an invalid payload")
			return types.Listing{}, nil
		},
	}
	router := newTestRouter(store, &stubEngine{}, buyerProfile)

	for _, body := range []string{`{"title": "", "price": 100}`, `{"title": "Hulk", "price": 0}`} {
		w := perform(router, http.MethodPost, "/api/listings", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestListListings_EmptyIsArray(t *testing.T) {
	store := &stubStore{
		listListings: func(context.Context, int) ([]types.Listing, error) { return nil, nil },
	}
	router := newTestRouter(store, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodGet, "/api/listings", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestSendMessage_ToSelf(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodPost, "/api/messages",
		`{"recipientId": "p-buyer", "body": "hello me"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage_UnknownRecipient(t *testing.T) {
	store := &stubStore{
		getProfile: func(context.Context, string) (types.Profile, error) {
			return types.Profile{}, apperrors.New(apperrors.ErrProfileNotFound, "profile not found")
		},
	}
	router := newTestRouter(store, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodPost, "/api/messages",
		`{"recipientId": "nobody", "body": "hello"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnreadCount(t *testing.T) {
	store := &stubStore{
		unreadCount: func(_ context.Context, profileID string) (int, error) {
			require.Equal(t, buyerProfile.ID, profileID)
			return 5, nil
		},
	}
	router := newTestRouter(store, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodGet, "/api/messages/unread-count", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 5, decodeBody(t, w)["count"])
}

func TestCurrentUsername(t *testing.T) {
	router := newTestRouter(&stubStore{}, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodGet, "/api/username/current", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, buyerProfile.Username, decodeBody(t, w)["username"])
}

func TestAdminCancelListing(t *testing.T) {
	store := &stubStore{
		getListing: func(_ context.Context, id string) (types.Listing, error) {
			return types.Listing{ID: id, Status: types.ListingAvailable}, nil
		},
		cancelListing: func(_ context.Context, id string) error {
			require.Equal(t, "l1", id)
			return nil
		},
	}
	router := newTestRouter(store, &stubEngine{}, adminProfile)

	w := perform(router, http.MethodPost, "/api/admin/listings/l1/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["success"])
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	store := &stubStore{
		getListing: func(context.Context, string) (types.Listing, error) {
			t.Fatal("store must not be reached without the admin role")
			return types.Listing{}, nil
		},
	}
	router := newTestRouter(store, &stubEngine{}, buyerProfile)

	w := perform(router, http.MethodPost, "/api/admin/listings/l1/cancel", "")
	require.Equal(t, http.StatusForbidden, w.Code)
}

// recordingProfileStore fails the test if the session middleware touches the
// store for a request that never presented a valid identity.
type recordingProfileStore struct {
	t      *testing.T
	called bool
}

func (r *recordingProfileStore) EnsureProfile(context.Context, string, string) (types.Profile, error) {
	r.called = true
	r.t.Fatal("EnsureProfile called for an unauthenticated request")
	return types.Profile{}, nil
}

func TestAuthMiddleware_RejectsBeforeStoreAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &recordingProfileStore{t: t}
	authn := auth.New("test-secret", "authjs.session-token")

	router := gin.New()
	router.Use(AuthMiddleware(authn, store))
	router.POST("/api/listings/:id/purchase", func(c *gin.Context) {
		t.Fatal("handler reached without authentication")
	})

	w := perform(router, http.MethodPost, "/api/listings/l1/purchase", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, store.called)

	body := decodeBody(t, w)
	require.EqualValues(t, apperrors.ErrUnauthorized, body["code"])
}
