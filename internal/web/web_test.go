package web

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

type testServer struct {
	*httptest.Server
	DB     *db.DB
	client *http.Client
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)

	svc := inventory.New(database, time.UTC)
	svc.Now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	router, err := NewRouter(Config{
		DB:                database,
		Inventory:         svc,
		Tokens:            auth.NewTokens("test-secret", "zaloga", time.Hour),
		LowStockThreshold: model.DefaultLowStockThreshold,
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), database, "admin", hash)
	require.NoError(t, err)

	return &testServer{Server: server, DB: database, client: client}
}

func (s *testServer) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Get(s.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *testServer) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.PostForm(s.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	resp, _ := s.post(t, "/login", url.Values{"username": {"admin"}, "password": {"password123"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/products", resp.Header.Get("Location"))
}

func (s *testServer) createProduct(t *testing.T, name string) int64 {
	t.Helper()
	p, err := store.CreateProduct(context.Background(), s.DB, name, "", "Hardware")
	require.NoError(t, err)
	return p.ID
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestConsoleRequiresLogin(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/", "/products", "/movements", "/settings"} {
		resp, _ := s.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	resp, body := s.get(t, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="username"`)
}

func TestConsoleLoginFailure(t *testing.T) {
	s := setupTestServer(t)

	resp, body := s.post(t, "/login", url.Values{"username": {"admin"}, "password": {"nope-nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Wrong username or password.")

	resp, _ = s.get(t, "/products")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestConsoleRootRedirects(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)

	resp, _ := s.get(t, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products", resp.Header.Get("Location"))
}

func TestConsoleProductsPage(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)
	ctx := context.Background()

	id := s.createProduct(t, "Hex bolt")
	s.createProduct(t, "Wing nut")
	_, err := store.RecordMovement(ctx, s.DB, model.StockMovement{
		ProductID: id, Quantity: 3, Kind: model.Inbound,
		Date: model.DateOf(time.Now()), Time: model.TimeOf(time.Now()),
	})
	require.NoError(t, err)

	resp, body := s.get(t, "/products")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hex bolt")
	assert.Contains(t, body, "Wing nut")
	assert.Contains(t, body, model.StatusLowStock)
	assert.Contains(t, body, model.StatusOutOfStock)

	resp, body = s.get(t, "/products?q=wing")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Wing nut")
	assert.NotContains(t, body, "Hex bolt")
}

func TestConsoleCreateAndUpdateProduct(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)

	resp, body := s.post(t, "/products", url.Values{"name": {""}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Name is required.")

	resp, _ = s.post(t, "/products", url.Values{"name": {"Hex bolt"}, "product_type": {"Hardware"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/products/"))

	resp, body = s.get(t, location)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hex bolt")

	resp, _ = s.post(t, location, url.Values{"name": {"Carriage bolt"}, "product_type": {"Hardware"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = s.get(t, resp.Header.Get("Location"))
	assert.Contains(t, body, "Carriage bolt")
	assert.Contains(t, body, "Product saved.")

	resp, _ = s.get(t, "/products/9999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = s.get(t, "/products/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConsoleRecordMovement(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)
	ctx := context.Background()
	id := s.createProduct(t, "Hex bolt")

	form := func(kind, qty string) url.Values {
		return url.Values{
			"product":       {itoa(id)},
			"movement_type": {kind},
			"quantity":      {qty},
		}
	}

	resp, _ := s.post(t, "/movements", form("Inbound", "5"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := s.post(t, "/movements", form("Outbound", "10"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Not enough stock. Current stock: 5, Requested: 10")

	resp, body = s.post(t, "/movements", form("Outbound", "0"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Quantity: Ensure this value is greater than 0.")

	stock, err := store.CurrentStock(ctx, s.DB, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stock)

	resp, body = s.get(t, "/movements?ok=Movement+recorded.")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Movement recorded.")
	assert.Contains(t, body, "2024-05-06")
	assert.Contains(t, body, "07:08:09")

	_, body = s.get(t, "/movements?movement_type=Outbound")
	assert.Contains(t, body, "No movements.")
}

func TestConsoleProductImage(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)
	id := s.createProduct(t, "Hex bolt")
	path := "/products/" + itoa(id) + "/image"

	resp, _ := s.get(t, path)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	img := image.NewRGBA(image.Rect(0, 0, 800, 400))
	img.Set(0, 0, color.White)
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "bolt.png")
	require.NoError(t, err)
	_, err = part.Write(pngData.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err = s.client.Post(s.URL+path, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, data := s.get(t, path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	decoded, err := png.Decode(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, decoded.Bounds().Dx())
	assert.Equal(t, 256, decoded.Bounds().Dy())
}

func TestConsoleDeleteProduct(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)
	ctx := context.Background()
	id := s.createProduct(t, "Hex bolt")

	resp, _ := s.post(t, "/movements", url.Values{"product": {itoa(id)}, "movement_type": {"Inbound"}, "quantity": {"2"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = s.post(t, "/products/"+itoa(id)+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, err := store.GetProduct(ctx, s.DB, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, total, err := store.ListMovements(ctx, s.DB, store.MovementFilter{ProductID: id}, nil, store.Page{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestConsoleChangePassword(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)

	resp, body := s.post(t, "/settings", url.Values{"current_password": {"wrong-one"}, "new_password": {"newpassword1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "The current password is wrong.")

	resp, body = s.post(t, "/settings", url.Values{"current_password": {"password123"}, "new_password": {"short"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "at least 8 characters")

	resp, body = s.post(t, "/settings", url.Values{"current_password": {"password123"}, "new_password": {"newpassword1"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Password changed.")

	user, err := store.GetUserByUsername(context.Background(), s.DB, "admin")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(user.PasswordHash, "newpassword1"))
}

func TestConsoleLogoutRevokesSession(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)

	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	cookies := s.client.Jar.Cookies(u)
	require.NotEmpty(t, cookies)
	token := cookies[0].Value

	resp, _ := s.post(t, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, s.URL+"/products", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	resp, err = s.client.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestConsoleHugePageNumber(t *testing.T) {
	s := setupTestServer(t)
	s.login(t)
	s.createProduct(t, "Hex bolt")

	for _, path := range []string{"/products?page=9223372036854775807", "/movements?page=9223372036854775807"} {
		resp, body := s.get(t, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotContains(t, body, "Hex bolt</a>", path)
	}
}

func TestPageParamIsCapped(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/products?page=9223372036854775807", nil)
	assert.Equal(t, store.MaxPageNumber, pageParam(r))

	r = httptest.NewRequest(http.MethodGet, "/products?page=-3", nil)
	assert.Equal(t, 1, pageParam(r))
}

func TestStaticAssets(t *testing.T) {
	s := setupTestServer(t)

	resp, body := s.get(t, "/static/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".status-low")
}

func TestValidationMessage(t *testing.T) {
	_, err := store.CreateProduct(context.Background(), db.NewTestDB(t), " ", "", "")
	assert.Equal(t, "Name is required.", validationMessage(err))
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
