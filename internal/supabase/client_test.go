package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return &Client{BaseURL: srv.URL, ServiceKey: "svc-key", HTTP: srv.Client()}, srv
}

func TestRest_Headers(t *testing.T) {
	var gotAPIKey, gotAuth string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	_, err := c.SearchListings(context.Background(), SearchParams{Query: "iphone"})
	require.NoError(t, err)
	assert.Equal(t, "svc-key", gotAPIKey)
	assert.Equal(t, "Bearer svc-key", gotAuth)
}

func TestSearchListings_Params(t *testing.T) {
	var got map[string][]string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`[{"id":"l1","title":"iPhone 13","price":25000,"profiles":{"full_name":"Ali","phone":"+905551"}}]`))
	})
	defer srv.Close()

	min, max := 10000, 30000
	res, err := c.SearchListings(context.Background(), SearchParams{
		Query:    "iphone",
		MinPrice: &min,
		MaxPrice: &max,
	})
	require.NoError(t, err)

	assert.Equal(t, "eq.active", got["status"][0])
	assert.Equal(t, "(title.ilike.*iphone*,description.ilike.*iphone*,category.ilike.*iphone*,location.ilike.*iphone*)", got["or"][0])
	assert.Equal(t, "(price.gte.10000,price.lte.30000)", got["and"][0])
	assert.NotContains(t, got, "price")

	require.Len(t, res.Results, 1)
	assert.Equal(t, "l1", res.Results[0].ID)
	require.NotNil(t, res.Results[0].Price)
	assert.Equal(t, 25000, *res.Results[0].Price)
	assert.Equal(t, "Ali", res.Results[0].OwnerName)
	assert.Equal(t, "+905551", res.Results[0].OwnerPhone)
}

func TestSearchListings_VehicleWordWidensCategory(t *testing.T) {
	var got map[string][]string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	_, err := c.SearchListings(context.Background(), SearchParams{Query: "araba"})
	require.NoError(t, err)
	assert.Contains(t, got["or"][0], "category.ilike.*otom*")
}

func TestUpdateListing_NotOwned(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "eq.l1", q.Get("id"))
		assert.Equal(t, "eq.other-user", q.Get("user_id"))
		w.Write([]byte(`[]`))
	})
	defer srv.Close()

	price := 27000
	err := c.UpdateListing(context.Background(), "l1", "other-user", UpdateFields{Price: &price})
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestDeleteListing_OK(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`[{"id":"l1"}]`))
	})
	defer srv.Close()

	assert.NoError(t, c.DeleteListing(context.Background(), "l1", "u1"))
}

func TestInsertListing_UsesDraftID(t *testing.T) {
	var body []byte
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		body = make([]byte, r.ContentLength)
		r.Body.Read(body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"draft-uuid"}]`))
	})
	defer srv.Close()

	id, err := c.InsertListing(context.Background(), InsertListingInput{
		ListingID: "draft-uuid",
		UserID:    "u1",
		Title:     "iPhone 13",
		Stock:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "draft-uuid", id)
	assert.Contains(t, string(body), `"id":"draft-uuid"`)
	assert.Contains(t, string(body), `"status":"active"`)
}

func TestRest_StatusError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key"}`))
	})
	defer srv.Close()

	_, err := c.SearchListings(context.Background(), SearchParams{Query: "x"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Contains(t, se.Body, "duplicate key")
}

func TestProfileByPhone_MatchesWithAndWithoutPlus(t *testing.T) {
	var got string
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("or")
		w.Write([]byte(`[{"id":"u1","phone":"+905551112233","full_name":"Ayşe"}]`))
	})
	defer srv.Close()

	p, err := c.ProfileByPhone(context.Background(), "905551112233")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "(phone.eq.905551112233,phone.eq.+905551112233)", got)
}

func TestPublicImageURL(t *testing.T) {
	c := &Client{BaseURL: "https://proj.supabase.co/"}
	assert.Equal(t,
		"https://proj.supabase.co/storage/v1/object/public/listing-images/u1/img.jpg",
		c.PublicImageURL("u1/img.jpg"))
	assert.Equal(t, "https://cdn.example.com/x.jpg", c.PublicImageURL("https://cdn.example.com/x.jpg"))
}
