package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"BizDesk/internal/backend"
	"BizDesk/internal/gateway"
	"BizDesk/internal/notify"
	"BizDesk/internal/route"
	"BizDesk/internal/validate"
)

const pageSize = 10

var loginRules = validate.Rules{
	"username": {Required: true, MinLength: 3},
	"password": {Required: true, MinLength: 4},
}

var customerRules = validate.Rules{
	"name":       {Required: true, MinLength: 3, MaxLength: 100},
	"cardNumber": {Required: true, MaxLength: 20},
	"mobile":     {Required: true, Pattern: regexp.MustCompile(`^[0-9]{10}$`)},
	"address":    {MaxLength: 250},
}

var statusRules = validate.Rules{
	"id":     {Required: true, Pattern: regexp.MustCompile(`^[0-9]+$`)},
	"status": {Required: true, Pattern: regexp.MustCompile(`^(PAID|PENDING)$`)},
}

var movementRules = validate.Rules{
	"itemId":        {Required: true, Pattern: regexp.MustCompile(`^[0-9]+$`)},
	"type":          {Required: true, Pattern: regexp.MustCompile(`^(IN|OUT)$`)},
	"quantity":      {Required: true, Pattern: regexp.MustCompile(`^[0-9]+$`), Min: validate.Bound(1)},
	"referenceType": {Required: true, Pattern: regexp.MustCompile(`^(CUSTOMER_ISSUE|STAFF_ISSUE|PURCHASE|RETURN)$`)},
	"notes":         {MaxLength: 250},
}

// managers may change collection status, record stock movement and see staff
var managers = []string{"admin", "manager"}

// listing binds a list command to its entry point and allowed roles.
// check, when set, runs after a page has been shown.
type listing struct {
	backend.Listing
	page  string
	roles []string
	check func(*Console, context.Context)
}

var listings = map[string]listing{
	"/collections": {Listing: backend.Collections, page: "/collections.html"},
	"/complaints":  {Listing: backend.Complaints, page: "/complaints.html"},
	"/expenses":    {Listing: backend.Expenses, page: "/expenses.html"},
	"/inventory":   {Listing: backend.Inventory, page: "/inventory.html", check: (*Console).checkLowStock},
	"/staff":       {Listing: backend.Staff, page: "/staff.html", roles: managers},
}

// handleCommand handles a slash command and reports whether to quit
func (c *Console) handleCommand(ctx context.Context, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}
	args := parts[1:]

	switch parts[0] {
	case "/quit", "/exit":
		return true, nil

	case "/login":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: /login <username> <password>")
		}
		c.login(ctx, args[0], args[1])
		return false, nil

	case "/logout":
		if err := c.store.Clear(); err != nil {
			return false, fmt.Errorf("failed to log out: %w", err)
		}
		c.notify.ShowToast("Logged out", notify.SeverityInfo)
		c.location.Navigate(c.config.LoginPath)
		return false, nil

	case "/whoami":
		user, err := c.store.GetUser()
		if err != nil {
			return false, err
		}
		if user == nil {
			fmt.Fprintln(c.out, "Not signed in.")
			return false, nil
		}
		fmt.Fprintf(c.out, "%s (id %s, role %s)\n", user.Name, user.ID, user.Role)
		return false, nil

	case "/dashboard":
		c.dashboard(ctx)
		return false, nil

	case "/customers":
		search, page := searchAndPage(args)
		c.customers(ctx, search, page)
		return false, nil

	case "/customer":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /customer <id>")
		}
		c.customer(ctx, args[0])
		return false, nil

	case "/new-customer":
		c.newCustomer(ctx, parseAssignments(args))
		return false, nil

	case "/edit-customer":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: /edit-customer <id> key=value...")
		}
		c.editCustomer(ctx, args[0], parseAssignments(args[1:]))
		return false, nil

	case "/collections", "/complaints", "/expenses", "/inventory", "/staff":
		_, page := searchAndPage(args)
		c.list(ctx, listings[parts[0]], page)
		return false, nil

	case "/show":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: /show <collections|complaints|expenses|inventory|staff> <id>")
		}
		l, ok := listings["/"+args[0]]
		if !ok {
			return false, fmt.Errorf("unknown listing: %s", args[0])
		}
		c.detail(ctx, l, args[1])
		return false, nil

	case "/collection-status":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: /collection-status <id> <PAID|PENDING>")
		}
		c.collectionStatus(ctx, args[0], strings.ToUpper(args[1]))
		return false, nil

	case "/movement":
		c.movement(ctx, parseAssignments(args))
		return false, nil

	case "/expense-stats":
		c.expenseStats(ctx)
		return false, nil

	case "/staff-performance":
		c.staffPerformance(ctx)
		return false, nil

	case "/get":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: /get <endpoint>")
		}
		c.raw(ctx, args[0])
		return false, nil

	case "/help":
		fmt.Fprintln(c.out, "Available commands:")
		fmt.Fprintln(c.out, "  /login <user> <password>   - Sign in")
		fmt.Fprintln(c.out, "  /logout                    - Sign out")
		fmt.Fprintln(c.out, "  /whoami                    - Show the signed-in user")
		fmt.Fprintln(c.out, "  /dashboard                 - Show today's figures")
		fmt.Fprintln(c.out, "  /customers [search] [page] - List customers")
		fmt.Fprintln(c.out, "  /customer <id>             - Show one customer")
		fmt.Fprintln(c.out, "  /new-customer key=value... - Create a customer (name, cardNumber, mobile, address)")
		fmt.Fprintln(c.out, "  /edit-customer <id> k=v... - Update a customer (same fields)")
		fmt.Fprintln(c.out, "  /collections [page]        - List collections")
		fmt.Fprintln(c.out, "  /complaints [page]         - List complaints")
		fmt.Fprintln(c.out, "  /expenses [page]           - List expenses")
		fmt.Fprintln(c.out, "  /inventory [page]          - List inventory")
		fmt.Fprintln(c.out, "  /staff [page]              - List staff (admin, manager)")
		fmt.Fprintln(c.out, "  /show <listing> <id>       - Show one collection, complaint, expense, item or staff member")
		fmt.Fprintln(c.out, "  /collection-status <id> <PAID|PENDING> - Change a payment status (admin, manager)")
		fmt.Fprintln(c.out, "  /movement key=value...     - Record stock movement (itemId, type, quantity, referenceType, notes)")
		fmt.Fprintln(c.out, "  /expense-stats             - Show today's, weekly and monthly expenses")
		fmt.Fprintln(c.out, "  /staff-performance         - Show staff metrics (admin, manager)")
		fmt.Fprintln(c.out, "  /get <endpoint>            - Print the raw payload of an endpoint")
		fmt.Fprintln(c.out, "  /quit, /exit               - Exit")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (c *Console) login(ctx context.Context, username, password string) {
	values := map[string]string{"username": username, "password": password}
	if errs := validate.Validate(values, loginRules); !errs.Valid() {
		c.reportInvalid(errs)
		return
	}

	c.location.Navigate(c.config.LoginPath)
	res, ok := c.call(ctx, "/auth/login", gateway.Options{
		Method: http.MethodPost,
		Body:   backend.LoginRequest{Username: username, Password: password},
	})
	if !ok {
		return
	}

	var resp backend.LoginResponse
	if err := res.Decode(&resp); err != nil || resp.Token == "" {
		c.logger.Error("unusable login response", "error", err)
		c.notify.ShowToast("Login failed", notify.SeverityError)
		return
	}

	if err := c.store.Save(resp.Token, resp.User); err != nil {
		c.logger.Error("failed to save session", "error", err)
		c.notify.ShowToast("Could not save session", notify.SeverityError)
		return
	}

	c.location.Navigate(route.Dashboard)
	c.notify.Showf(notify.SeveritySuccess, "Welcome, %s", resp.User.Name)
}

func (c *Console) dashboard(ctx context.Context) {
	if !c.open(route.Dashboard) {
		return
	}
	res, ok := c.call(ctx, "/dashboard", gateway.Options{})
	if !ok {
		return
	}

	var d backend.Dashboard
	if err := res.Decode(&d); err != nil {
		c.logger.Error("failed to decode dashboard", "error", err)
		c.notify.ShowToast("Failed to load dashboard data", notify.SeverityError)
		return
	}

	fmt.Fprintf(c.out, "Total customers:    %s\n", c.format.Number(int64(d.Customers)))
	fmt.Fprintf(c.out, "Active complaints:  %s\n", c.format.Number(int64(d.Complaints.Active)))
	fmt.Fprintf(c.out, "Today's collection: %s\n", c.format.Currency(d.Collections.Today))
	fmt.Fprintf(c.out, "Low stock items:    %s\n", c.format.Number(int64(d.Inventory.LowStock)))
}

func (c *Console) customers(ctx context.Context, search string, page int) {
	if !c.open("/customers.html") {
		return
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))
	if search != "" {
		query.Set("search", search)
	}

	res, ok := c.call(ctx, "/customers", gateway.Options{Query: query})
	if !ok {
		return
	}

	var list backend.CustomerList
	if err := res.Decode(&list); err != nil {
		c.logger.Error("failed to decode customers", "error", err)
		c.notify.ShowToast("Failed to load customers", notify.SeverityError)
		return
	}

	rows := make([][]string, 0, len(list.Customers))
	for _, cu := range list.Customers {
		rows = append(rows, []string{string(cu.ID), cu.Name, cu.CardNumber, cu.Mobile, c.format.Currency(cu.Outstanding)})
	}
	c.table([]string{"ID", "NAME", "CARD", "MOBILE", "OUTSTANDING"}, rows)
	c.pageFooter(page, list.Pagination)

	c.checkLargeOutstandings(ctx)
}

// checkLargeOutstandings warns about customers with large dues; failures are only logged
func (c *Console) checkLargeOutstandings(ctx context.Context) {
	data, err := c.gateway.Request(ctx, "/customers/outstanding/large", gateway.Options{})
	if err != nil {
		c.logger.Warn("failed to check large outstandings", "error", err)
		return
	}
	if data == nil {
		return
	}

	var payload struct {
		Customers []backend.Customer `json:"customers"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logger.Warn("failed to decode large outstandings", "error", err)
		return
	}
	if n := len(payload.Customers); n > 0 {
		c.notify.Showf(notify.SeverityWarning, "%d customers have large outstanding amounts", n)
	}
}

func (c *Console) customer(ctx context.Context, id string) {
	if !c.open("/customers.html") {
		return
	}
	res, ok := c.call(ctx, "/customers/"+url.PathEscape(id), gateway.Options{})
	if !ok {
		return
	}

	var detail backend.CustomerDetail
	if err := res.Decode(&detail); err != nil {
		c.logger.Error("failed to decode customer", "error", err)
		c.notify.ShowToast("Failed to load customer details", notify.SeverityError)
		return
	}

	cu := detail.Customer
	fmt.Fprintf(c.out, "Name:        %s\n", cu.Name)
	fmt.Fprintf(c.out, "Card number: %s\n", cu.CardNumber)
	fmt.Fprintf(c.out, "Mobile:      %s\n", cu.Mobile)
	fmt.Fprintf(c.out, "Address:     %s\n", cu.Address)
	fmt.Fprintf(c.out, "Outstanding: %s\n", c.format.Currency(cu.Outstanding))
	fmt.Fprintf(c.out, "Collections: %d, complaints: %d\n", len(detail.Collections), len(detail.Complaints))
}

func (c *Console) newCustomer(ctx context.Context, values map[string]string) {
	if !c.open("/customers.html") {
		return
	}
	if errs := validate.Validate(values, customerRules); !errs.Valid() {
		c.reportInvalid(errs)
		return
	}

	_, ok := c.call(ctx, "/customers", gateway.Options{
		Method: http.MethodPost,
		Body:   customerBody(values),
	})
	if !ok {
		return
	}
	c.notify.ShowToast("Customer created successfully", notify.SeveritySuccess)
}

func (c *Console) editCustomer(ctx context.Context, id string, values map[string]string) {
	if !c.open("/customers.html") {
		return
	}
	if errs := validate.Validate(values, customerRules); !errs.Valid() {
		c.reportInvalid(errs)
		return
	}

	_, ok := c.call(ctx, "/customers/"+url.PathEscape(id), gateway.Options{
		Method: http.MethodPut,
		Body:   customerBody(values),
	})
	if !ok {
		return
	}
	c.notify.ShowToast("Customer updated successfully", notify.SeveritySuccess)
}

func customerBody(values map[string]string) backend.Customer {
	return backend.Customer{
		Name:       values["name"],
		CardNumber: values["cardNumber"],
		Mobile:     values["mobile"],
		Address:    values["address"],
	}
}

func (c *Console) list(ctx context.Context, l listing, page int) {
	if !c.open(l.page, l.roles...) {
		return
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))

	res, ok := c.call(ctx, l.Endpoint, gateway.Options{Query: query})
	if !ok {
		return
	}

	records, p, err := l.Page(res.Data)
	if err != nil {
		c.logger.Error("failed to decode listing", "endpoint", l.Endpoint, "error", err)
		c.notify.Showf(notify.SeverityError, "Failed to load %s", l.Key)
		return
	}

	header := make([]string, len(l.Columns))
	for i, col := range l.Columns {
		header[i] = strings.ToUpper(col)
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(l.Columns))
		for i, col := range l.Columns {
			row[i] = c.cell(col, rec[col])
		}
		rows = append(rows, row)
	}
	c.table(header, rows)
	c.pageFooter(page, p)

	if summary, err := l.Summary(res.Data); err != nil {
		c.logger.Warn("failed to decode listing summary", "endpoint", l.Endpoint, "error", err)
	} else if len(summary) > 0 {
		fmt.Fprintln(c.out, "Summary:")
		c.record(summary)
	}

	if l.check != nil {
		l.check(c, ctx)
	}
}

// checkLowStock warns about items below their minimum; failures are only logged
func (c *Console) checkLowStock(ctx context.Context) {
	data, err := c.gateway.Request(ctx, "/inventory/alerts", gateway.Options{})
	if err != nil {
		c.logger.Warn("failed to check low stock", "error", err)
		return
	}
	if data == nil {
		return
	}

	var alerts backend.InventoryAlerts
	if err := json.Unmarshal(data, &alerts); err != nil {
		c.logger.Warn("failed to decode low stock alerts", "error", err)
		return
	}
	if n := len(alerts.Alerts); n > 0 {
		c.notify.Showf(notify.SeverityWarning, "%d items are low on stock", n)
	}
}

func (c *Console) detail(ctx context.Context, l listing, id string) {
	if !c.open(l.page, l.roles...) {
		return
	}
	res, ok := c.call(ctx, l.Endpoint+"/"+url.PathEscape(id), gateway.Options{})
	if !ok {
		return
	}

	rec, err := l.Detail(res.Data)
	if err != nil || rec == nil {
		c.logger.Error("failed to decode detail", "endpoint", l.Endpoint, "id", id, "error", err)
		c.notify.Showf(notify.SeverityError, "Failed to load %s details", l.DetailKey)
		return
	}
	c.record(rec)
}

func (c *Console) collectionStatus(ctx context.Context, id, status string) {
	if !c.open("/collections.html", managers...) {
		return
	}
	values := map[string]string{"id": id, "status": status}
	if errs := validate.Validate(values, statusRules); !errs.Valid() {
		c.reportInvalid(errs)
		return
	}

	_, ok := c.call(ctx, "/collections/"+id+"/status", gateway.Options{
		Method: http.MethodPut,
		Body:   backend.StatusUpdate{PaymentStatus: status},
	})
	if !ok {
		return
	}
	c.notify.ShowToast("Collection status updated successfully", notify.SeveritySuccess)
}

func (c *Console) movement(ctx context.Context, values map[string]string) {
	if !c.open("/inventory.html") {
		return
	}
	if v, ok := values["type"]; ok {
		values["type"] = strings.ToUpper(v)
	}
	if errs := validate.Validate(values, movementRules); !errs.Valid() {
		c.reportInvalid(errs)
		return
	}

	// both fields passed the digit patterns above
	itemID, _ := strconv.ParseInt(values["itemId"], 10, 64)
	quantity, err := strconv.Atoi(values["quantity"])
	if err != nil {
		c.notify.ShowToast("quantity is too large", notify.SeverityWarning)
		return
	}

	_, ok := c.call(ctx, "/inventory/movement", gateway.Options{
		Method: http.MethodPost,
		Body: backend.Movement{
			ItemID:        itemID,
			Type:          values["type"],
			Quantity:      quantity,
			ReferenceType: values["referenceType"],
			Notes:         values["notes"],
		},
	})
	if !ok {
		return
	}
	c.notify.ShowToast("Movement recorded successfully", notify.SeveritySuccess)
	c.checkLowStock(ctx)
}

func (c *Console) expenseStats(ctx context.Context) {
	if !c.open("/expenses.html") {
		return
	}
	res, ok := c.call(ctx, "/expenses/stats", gateway.Options{})
	if !ok {
		return
	}

	var stats backend.ExpenseStats
	if err := res.Decode(&stats); err != nil {
		c.logger.Error("failed to decode expense stats", "error", err)
		c.notify.ShowToast("Failed to load expense statistics", notify.SeverityError)
		return
	}
	fmt.Fprintf(c.out, "Today:      %s\n", c.format.Currency(stats.TodayExpenses))
	fmt.Fprintf(c.out, "This week:  %s\n", c.format.Currency(stats.WeeklyExpenses))
	fmt.Fprintf(c.out, "This month: %s\n", c.format.Currency(stats.MonthlyExpenses))
}

func (c *Console) staffPerformance(ctx context.Context) {
	if !c.open("/staff.html", managers...) {
		return
	}
	res, ok := c.call(ctx, "/staff/performance", gateway.Options{})
	if !ok {
		return
	}

	var perf backend.StaffPerformance
	if err := res.Decode(&perf); err != nil {
		c.logger.Error("failed to decode staff performance", "error", err)
		c.notify.ShowToast("Failed to load performance metrics", notify.SeverityError)
		return
	}

	rows := make([][]string, 0, len(perf.Performance))
	for _, p := range perf.Performance {
		metrics := make([]string, 0, len(p.Metrics))
		for _, k := range slices.Sorted(maps.Keys(p.Metrics)) {
			metrics = append(metrics, k+"="+c.cell(k, p.Metrics[k]))
		}
		rows = append(rows, []string{p.Staff.Name, p.Staff.Role, strings.Join(metrics, " ")})
	}
	c.table([]string{"NAME", "ROLE", "METRICS"}, rows)
}

func (c *Console) raw(ctx context.Context, endpoint string) {
	if !c.open(route.Dashboard) {
		return
	}
	res, ok := c.call(ctx, endpoint, gateway.Options{})
	if !ok {
		return
	}

	if len(res.Data) == 0 {
		fmt.Fprintln(c.out, "(no data)")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, res.Data, "", "  "); err != nil {
		fmt.Fprintln(c.out, string(res.Data))
		return
	}
	fmt.Fprintln(c.out, buf.String())
}

func (c *Console) reportInvalid(errs validate.Errors) {
	for _, field := range errs.Fields() {
		c.notify.ShowToast(errs[field], notify.SeverityWarning)
	}
}

// searchAndPage splits trailing page number from free-text search terms
func searchAndPage(args []string) (string, int) {
	page := 1
	if n := len(args); n > 0 {
		if p, err := strconv.Atoi(args[n-1]); err == nil && p > 0 {
			page = p
			args = args[:n-1]
		}
	}
	return strings.Join(args, " "), page
}

// parseAssignments reads key=value pairs; words without '=' continue the previous value
func parseAssignments(args []string) map[string]string {
	values := map[string]string{}
	last := ""
	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok && k != "" {
			values[k] = v
			last = k
			continue
		}
		if last != "" {
			values[last] += " " + arg
		}
	}
	return values
}
