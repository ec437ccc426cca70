package console

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"BizDesk/internal/config"
	"BizDesk/internal/session"
)

// fakeBackend counts hits per path and serves canned envelopes
type fakeBackend struct {
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string][]byte
	query  map[string]string
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		hits:   map[string]int{},
		bodies: map[string][]byte{},
		query:  map[string]string{},
		routes: map[string]func(w http.ResponseWriter, r *http.Request){},
	}
}

func (f *fakeBackend) reply(path string, status int, body string) {
	f.routes[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.hits[r.Method+" "+r.URL.Path]++
	f.bodies[r.URL.Path] = body
	f.query[r.URL.Path] = r.URL.RawQuery
	h, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"not found"}`)
		return
	}
	h(w, r)
}

func (f *fakeBackend) body(path string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[path]
}

func (f *fakeBackend) rawQuery(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query[path]
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

// run feeds script to a console wired to fake and returns its output
func run(t *testing.T, fake *fakeBackend, store *session.Store, script string) string {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return runAt(t, srv.URL, store, script)
}

// runAt feeds script to a console whose backend lives at baseURL
func runAt(t *testing.T, baseURL string, store *session.Store, script string) string {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = baseURL

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := build(cfg, store, logger, strings.NewReader(script), &out)
	if err != nil {
		t.Fatalf("build() failed: %v", err)
	}
	if err := c.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return out.String()
}

func signedIn(t *testing.T, role string) *session.Store {
	t.Helper()
	store := session.NewStore(session.NewMemoryBackend())
	if err := store.Save("tok-1", session.User{ID: "7", Name: "Asha", Role: role}); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	return store
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("output missing %q:\n%s", w, out)
		}
	}
}

func TestLoginSavesSession(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/auth/login", http.StatusOK,
		`{"data":{"token":"tok-9","user":{"id":7,"name":"Asha","role":"admin"}},"message":"ok"}`)
	store := session.NewStore(session.NewMemoryBackend())

	out := run(t, fake, store, "/login asha secret\n/whoami\n")

	tok, _ := store.GetToken()
	if tok != "tok-9" {
		t.Fatalf("token = %q, want tok-9", tok)
	}
	assertContains(t, out, "Welcome, Asha", "Asha (id 7, role admin)")

	var req map[string]string
	json.Unmarshal(fake.body("/api/auth/login"), &req)
	if req["username"] != "asha" || req["password"] != "secret" {
		t.Fatalf("unexpected login body: %v", req)
	}
}

func TestLoginValidation(t *testing.T) {
	fake := newFakeBackend()
	out := run(t, fake, session.NewStore(session.NewMemoryBackend()), "/login ab xyz\n")

	assertContains(t, out, "username must be at least 3 characters", "password must be at least 4 characters")
	if fake.count("POST /api/auth/login") != 0 {
		t.Fatalf("invalid login reached the backend")
	}
}

func TestCommandsRequireSession(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/dashboard", http.StatusOK, `{"data":{}}`)

	out := run(t, fake, session.NewStore(session.NewMemoryBackend()), "/dashboard\n")

	assertContains(t, out, "Please sign in")
	if fake.count("GET /api/dashboard") != 0 {
		t.Fatalf("dashboard fetched without a session")
	}
}

func TestDashboard(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/dashboard", http.StatusOK,
		`{"data":{"customers":1520,"complaints":{"active":4},"collections":{"today":45000},"inventory":{"lowStock":2}}}`)

	out := run(t, fake, signedIn(t, "admin"), "/dashboard\n")
	assertContains(t, out, "Total customers:    1,520", "Today's collection: ₹45,000.00", "Low stock items:    2", "Loading...")
}

func TestExpiredSessionRedirects(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/dashboard", http.StatusUnauthorized, `{"message":"token expired"}`)
	store := signedIn(t, "admin")

	out := run(t, fake, store, "/dashboard\n")

	if tok, _ := store.GetToken(); tok != "" {
		t.Fatalf("token survived a 401: %q", tok)
	}
	if user, _ := store.GetUser(); user != nil {
		t.Fatalf("profile survived a 401: %+v", user)
	}
	assertContains(t, out, "Please sign in")
	if strings.Contains(out, "[error]") {
		t.Fatalf("401 surfaced as an error toast:\n%s", out)
	}
}

func TestCustomersListing(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/customers", http.StatusOK,
		`{"data":{"customers":[{"id":1,"name":"Ravi Kumar","cardNumber":"C-19","mobile":"9876543210","outstandingAmount":123456.78}],"pagination":{"page":2,"pages":3}}}`)
	fake.reply("/api/customers/outstanding/large", http.StatusOK,
		`{"data":{"customers":[{"id":1},{"id":2}]}}`)

	out := run(t, fake, signedIn(t, "staff"), "/customers ravi 2\n")

	assertContains(t, out, "Ravi Kumar", "₹1,23,456.78", "Page 2 of 3", "2 customers have large outstanding amounts")
	if q := fake.rawQuery("/api/customers"); q != "limit=10&page=2&search=ravi" {
		t.Fatalf("query = %q", q)
	}
}

func TestStaffRequiresRole(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/staff", http.StatusOK,
		`{"data":{"staff":[{"id":3,"name":"Meera","role":"manager","mobile":"9000000000","status":"ACTIVE"}],"pagination":{"pages":1}}}`)

	out := run(t, fake, signedIn(t, "staff"), "/staff\n")
	assertContains(t, out, "not authorized")
	if fake.count("GET /api/staff") != 0 {
		t.Fatalf("staff listing fetched for a staff role")
	}

	out = run(t, fake, signedIn(t, "manager"), "/staff\n")
	assertContains(t, out, "Meera", "ACTIVE", "Page 1 of 1")
}

func TestNewCustomer(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/customers", http.StatusCreated, `{"data":{"customer":{"id":11}},"message":"created"}`)

	out := run(t, fake, signedIn(t, "admin"), "/new-customer name=Ravi Kumar cardNumber=C-19 mobile=12345\n")
	assertContains(t, out, "mobile format is invalid")
	if fake.count("POST /api/customers") != 0 {
		t.Fatalf("invalid customer reached the backend")
	}

	out = run(t, fake, signedIn(t, "admin"),
		"/new-customer name=Ravi Kumar cardNumber=C-19 mobile=9876543210 address=12 MG Road\n")
	assertContains(t, out, "Customer created successfully")

	var body map[string]any
	json.Unmarshal(fake.body("/api/customers"), &body)
	if body["name"] != "Ravi Kumar" || body["address"] != "12 MG Road" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestFailureShowsBackendMessage(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/complaints", http.StatusInternalServerError, `{"message":"database down"}`)

	out := run(t, fake, signedIn(t, "admin"), "/complaints\n")
	assertContains(t, out, "[error]", "database down")
}

func TestLogout(t *testing.T) {
	store := signedIn(t, "admin")
	out := run(t, newFakeBackend(), store, "/logout\n/whoami\n")

	if tok, _ := store.GetToken(); tok != "" {
		t.Fatalf("token after logout: %q", tok)
	}
	assertContains(t, out, "Logged out", "Not signed in.")
}

func TestSearchAndPage(t *testing.T) {
	cases := []struct {
		args   []string
		search string
		page   int
	}{
		{nil, "", 1},
		{[]string{"3"}, "", 3},
		{[]string{"ravi", "kumar"}, "ravi kumar", 1},
		{[]string{"ravi", "0"}, "ravi 0", 1},
	}
	for _, tc := range cases {
		search, page := searchAndPage(tc.args)
		if search != tc.search || page != tc.page {
			t.Fatalf("searchAndPage(%v) = %q, %d", tc.args, search, page)
		}
	}
}

func TestParseAssignments(t *testing.T) {
	got := parseAssignments(strings.Fields("stray name=Ravi Kumar mobile=98 address=12 MG Road"))
	if got["name"] != "Ravi Kumar" || got["mobile"] != "98" || got["address"] != "12 MG Road" {
		t.Fatalf("unexpected values: %v", got)
	}
	if _, ok := got["stray"]; ok {
		t.Fatalf("leading word without key was kept")
	}
}

func TestListWithoutDataIsEmptyPage(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/collections", http.StatusOK, `{"message":"ok"}`)

	out := run(t, fake, signedIn(t, "admin"), "/collections\n")
	assertContains(t, out, "No records found.", "Page 1 of 1")
	if strings.Contains(out, "[error]") {
		t.Fatalf("successful call without data surfaced an error:\n%s", out)
	}
}

func TestListingSummaryIsShown(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/collections", http.StatusOK,
		`{"data":{"collections":[{"id":1,"receiptNumber":"R-1","amount":500,"paymentStatus":"PAID"}],"pagination":{"pages":1},"summary":{"totalAmount":1500,"pendingAmount":200}}}`)

	out := run(t, fake, signedIn(t, "staff"), "/collections\n")
	assertContains(t, out, "R-1", "Summary:", "totalAmount:", "₹1,500.00", "pendingAmount:", "₹200.00")
}

func TestInventoryWarnsAboutLowStock(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/inventory", http.StatusOK,
		`{"data":{"items":[{"id":4,"name":"Cable","quantity":2,"minQuantity":5}],"pagination":{"pages":1}}}`)
	fake.reply("/api/inventory/alerts", http.StatusOK, `{"data":{"alerts":[{"id":4},{"id":6},{"id":8}]}}`)

	out := run(t, fake, signedIn(t, "staff"), "/inventory\n")
	assertContains(t, out, "Cable", "3 items are low on stock")
}

func TestLowStockCheckFailureIsQuiet(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/inventory", http.StatusOK, `{"data":{"items":[],"pagination":{"pages":1}}}`)

	out := run(t, fake, signedIn(t, "staff"), "/inventory\n")
	if fake.count("GET /api/inventory/alerts") != 1 {
		t.Fatalf("low stock alerts not requested")
	}
	if strings.Contains(out, "[error]") || strings.Contains(out, "low on stock") {
		t.Fatalf("failed alert check was surfaced:\n%s", out)
	}
}

func TestCollectionStatus(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/collections/5/status", http.StatusOK, `{"data":{},"message":"updated"}`)

	out := run(t, fake, signedIn(t, "staff"), "/collection-status 5 paid\n")
	assertContains(t, out, "not authorized")

	out = run(t, fake, signedIn(t, "manager"), "/collection-status 5 refunded\n")
	assertContains(t, out, "status format is invalid")
	if fake.count("PUT /api/collections/5/status") != 0 {
		t.Fatalf("invalid status change reached the backend")
	}

	out = run(t, fake, signedIn(t, "admin"), "/collection-status 5 paid\n")
	assertContains(t, out, "Collection status updated successfully")

	var body map[string]string
	json.Unmarshal(fake.body("/api/collections/5/status"), &body)
	if body["paymentStatus"] != "PAID" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestMovement(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/inventory/movement", http.StatusCreated, `{"data":{},"message":"recorded"}`)
	fake.reply("/api/inventory/alerts", http.StatusOK, `{"data":{"alerts":[{"id":4}]}}`)

	out := run(t, fake, signedIn(t, "staff"), "/movement itemId=4 type=sideways quantity=0 referenceType=PURCHASE\n")
	assertContains(t, out, "type format is invalid", "quantity must be at least 1")
	if fake.count("POST /api/inventory/movement") != 0 {
		t.Fatalf("invalid movement reached the backend")
	}

	out = run(t, fake, signedIn(t, "staff"),
		"/movement itemId=4 type=out quantity=3 referenceType=CUSTOMER_ISSUE notes=issued for site visit\n")
	assertContains(t, out, "Movement recorded successfully", "1 items are low on stock")

	var body map[string]any
	json.Unmarshal(fake.body("/api/inventory/movement"), &body)
	if body["itemId"] != float64(4) || body["type"] != "OUT" || body["quantity"] != float64(3) {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["referenceType"] != "CUSTOMER_ISSUE" || body["notes"] != "issued for site visit" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestShowDetail(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/inventory/4", http.StatusOK, `{"data":{"item":{"name":"Cable","quantity":12,"purchaseDate":"2024-03-05T10:30:00Z"}}}`)
	fake.reply("/api/collections/9", http.StatusOK, `{"data":{}}`)

	out := run(t, fake, signedIn(t, "staff"), "/show inventory 4\n/show collections 9\n/show widgets 1\n")
	assertContains(t, out, "name:", "Cable", "quantity:", "12", "5 Mar 2024",
		"Failed to load collection details", "unknown listing: widgets")
}

func TestExpenseStats(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/expenses/stats", http.StatusOK,
		`{"data":{"todayExpenses":1200,"weeklyExpenses":8500.5,"monthlyExpenses":150000}}`)

	out := run(t, fake, signedIn(t, "staff"), "/expense-stats\n")
	assertContains(t, out, "Today:      ₹1,200.00", "This week:  ₹8,500.50", "This month: ₹1,50,000.00")
}

func TestStaffPerformance(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/staff/performance", http.StatusOK,
		`{"data":{"performance":[{"staff":{"Name":"Meera","Role":"manager"},"metrics":{"resolvedComplaints":5,"collectedAmount":2500}}]}}`)

	out := run(t, fake, signedIn(t, "staff"), "/staff-performance\n")
	assertContains(t, out, "not authorized")
	if fake.count("GET /api/staff/performance") != 0 {
		t.Fatalf("performance fetched for a staff role")
	}

	out = run(t, fake, signedIn(t, "admin"), "/staff-performance\n")
	assertContains(t, out, "Meera", "manager", "collectedAmount=₹2,500.00", "resolvedComplaints=5")
}

func TestEditCustomer(t *testing.T) {
	fake := newFakeBackend()
	fake.reply("/api/customers/11", http.StatusOK, `{"data":{"customer":{"id":11}},"message":"updated"}`)

	out := run(t, fake, signedIn(t, "admin"),
		"/edit-customer 11 name=Ravi Kumar cardNumber=C-19 mobile=9876543210\n")
	assertContains(t, out, "Customer updated successfully")
	if fake.count("PUT /api/customers/11") != 1 {
		t.Fatalf("update not sent")
	}

	var body map[string]any
	json.Unmarshal(fake.body("/api/customers/11"), &body)
	if body["mobile"] != "9876543210" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestTransportFailureMessages(t *testing.T) {
	fake := newFakeBackend()
	fake.routes["/api/dashboard"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html>maintenance</html>")
	}
	out := run(t, fake, signedIn(t, "admin"), "/dashboard\n")
	assertContains(t, out, "Unexpected response from the server")

	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()
	out = runAt(t, baseURL, signedIn(t, "admin"), "/dashboard\n")
	assertContains(t, out, "Unable to reach the server")
}

func TestNewLogsAndClosesOnDatabaseFailure(t *testing.T) {
	cfg := config.Default()
	cfg.LogDir = t.TempDir()
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "bizdesk.db")

	c, err := New(cfg)
	if err == nil {
		c.Close()
		t.Fatalf("New() succeeded with an unreachable database path")
	}
	if !strings.Contains(err.Error(), "failed to initialize database") {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfg.LogDir, "bizdesk.log"))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "startup failed") {
		t.Fatalf("startup failure not logged:\n%s", data)
	}
}
