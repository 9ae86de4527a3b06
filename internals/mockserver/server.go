// Package mockserver is an in-memory implementation of the EHR backend's REST
// contract. It backs the package tests and the `ehr mock-server` command.
package mockserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const PageSize = 10

type record map[string]interface{}

type table struct {
	res    *resource
	rows   map[int]record
	nextID int
}

type Server struct {
	mu     sync.RWMutex
	tables map[string]*table
	echo   *echo.Echo
	logger zerolog.Logger
	now    func() time.Time
}

func New(logger zerolog.Logger) *Server {
	s := &Server{
		tables: make(map[string]*table),
		logger: logger,
		now:    time.Now,
	}
	for _, res := range resources {
		s.tables[res.name] = &table{res: res, rows: make(map[int]record), nextID: 1}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(recovery(logger))
	e.Use(requestID())
	e.Use(requestLogger(logger))

	api := e.Group("/api")
	api.GET("/", s.apiRoot)
	for _, res := range resources {
		api.GET("/"+res.name+"/", s.list(res))
		api.POST("/"+res.name+"/", s.create(res))
		api.GET("/"+res.name+"/:id/", s.retrieve(res))
		api.PUT("/"+res.name+"/:id/", s.update(res, false))
		api.PATCH("/"+res.name+"/:id/", s.update(res, true))
		api.DELETE("/"+res.name+"/:id/", s.destroy(res))
	}
	s.echo = e
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Count returns the number of stored rows of a resource, e.g. "patients".
func (s *Server) Count(resourceName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[resourceName]
	if !ok {
		return 0
	}
	return len(t.rows)
}

func (s *Server) apiRoot(c echo.Context) error {
	base := fmt.Sprintf("%s://%s/api/", c.Scheme(), c.Request().Host)
	root := make(map[string]string, len(resources))
	for _, res := range resources {
		root[res.name] = base + res.name + "/"
	}
	return c.JSON(http.StatusOK, root)
}

func (s *Server) list(res *resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		query := c.QueryParams()

		s.mu.RLock()
		rows := make([]record, 0, len(s.tables[res.name].rows))
		for _, row := range s.tables[res.name].rows {
			if matches(res, row, query) {
				rows = append(rows, row)
			}
		}
		orderRows(res, rows, query.Get("ordering"))

		count := len(rows)
		page := 1
		if p := query.Get("page"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n < 1 || (n > 1 && (n-1)*PageSize >= count) {
				s.mu.RUnlock()
				return echo.NewHTTPError(http.StatusNotFound, "Invalid page.")
			}
			page = n
		}
		start := (page - 1) * PageSize
		end := start + PageSize
		if end > count {
			end = count
		}
		results := make([]record, 0, end-start)
		for _, row := range rows[start:end] {
			results = append(results, s.render(res, row))
		}
		s.mu.RUnlock()

		var next, previous interface{}
		if end < count {
			next = pageLink(c, page+1)
		}
		if page > 1 {
			previous = pageLink(c, page-1)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"count":    count,
			"next":     next,
			"previous": previous,
			"results":  results,
		})
	}
}

func (s *Server) create(res *resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := decodeBody(c)
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		t := s.tables[res.name]
		row, errs := s.validate(res, data, nil)
		if len(errs) > 0 {
			return c.JSON(http.StatusBadRequest, errs)
		}
		now := s.now().UTC()
		row["id"] = t.nextID
		row["created_at"] = now
		row["updated_at"] = now
		t.rows[t.nextID] = row
		t.nextID++
		return c.JSON(http.StatusCreated, s.render(res, row))
	}
}

func (s *Server) retrieve(res *resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		row, err := s.lookup(res, c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, s.render(res, row))
	}
}

// update is PUT when partial is false: every required field must be sent.
// PATCH only validates and changes the fields present in the body.
func (s *Server) update(res *resource, partial bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		row, err := s.lookup(res, c)
		if err != nil {
			return err
		}
		data, err := decodeBody(c)
		if err != nil {
			return err
		}

		var changes record
		var errs map[string][]string
		if partial {
			changes, errs = s.validatePartial(res, data, row)
		} else {
			changes, errs = s.validate(res, data, row)
		}
		if len(errs) > 0 {
			return c.JSON(http.StatusBadRequest, errs)
		}
		for key, value := range changes {
			row[key] = value
		}
		row["updated_at"] = s.now().UTC()
		return c.JSON(http.StatusOK, s.render(res, row))
	}
}

func (s *Server) destroy(res *resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		row, err := s.lookup(res, c)
		if err != nil {
			return err
		}
		id := row["id"].(int)
		delete(s.tables[res.name].rows, id)
		if res == patients {
			for _, child := range resources {
				if !child.childOfPatient {
					continue
				}
				for childID, childRow := range s.tables[child.name].rows {
					if childRow["patient"] == id {
						delete(s.tables[child.name].rows, childID)
					}
				}
			}
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// lookup must be called with the lock held.
func (s *Server) lookup(res *resource, c echo.Context) (record, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	row, ok := s.tables[res.name].rows[id]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Not found.")
	}
	return row, nil
}

// validate checks a full representation. Missing optional fields take their
// default. existing is nil on create.
func (s *Server) validate(res *resource, data map[string]interface{}, existing record) (record, map[string][]string) {
	row := record{}
	errs := map[string][]string{}
	for _, f := range res.fields {
		raw, present := data[f.name]
		if !present {
			if f.required {
				errs[f.name] = []string{"This field is required."}
			} else if existing == nil {
				row[f.name] = f.def
			}
			continue
		}
		value, msg := s.clean(f, raw)
		if msg != "" {
			errs[f.name] = []string{msg}
			continue
		}
		row[f.name] = value
	}
	s.checkUnique(res, row, existing, errs)
	return row, errs
}

func (s *Server) validatePartial(res *resource, data map[string]interface{}, existing record) (record, map[string][]string) {
	row := record{}
	errs := map[string][]string{}
	for _, f := range res.fields {
		raw, present := data[f.name]
		if !present {
			continue
		}
		value, msg := s.clean(f, raw)
		if msg != "" {
			errs[f.name] = []string{msg}
			continue
		}
		row[f.name] = value
	}
	s.checkUnique(res, row, existing, errs)
	return row, errs
}

func (s *Server) checkUnique(res *resource, row record, existing record, errs map[string][]string) {
	for _, f := range res.fields {
		if !f.unique {
			continue
		}
		value, ok := row[f.name]
		if !ok {
			continue
		}
		for id, other := range s.tables[res.name].rows {
			if existing != nil && existing["id"] == id {
				continue
			}
			if other[f.name] == value {
				errs[f.name] = []string{fmt.Sprintf("%s with this %s already exists.", res.label, strings.ReplaceAll(f.name, "_", " "))}
				break
			}
		}
	}
}

// render must be called with the lock held.
func (s *Server) render(res *resource, row record) record {
	out := record{"id": row["id"]}
	for _, f := range res.fields {
		out[f.name] = renderValue(f.kind, row[f.name])
	}
	out["created_at"] = renderValue(kindDateTime, row["created_at"])
	out["updated_at"] = renderValue(kindDateTime, row["updated_at"])
	if res.childOfPatient {
		if patient, ok := s.tables[patients.name].rows[row["patient"].(int)]; ok {
			out["patient_name"] = fmt.Sprintf("%s %s", patient["first_name"], patient["last_name"])
		}
	}
	return out
}

func matches(res *resource, row record, query url.Values) bool {
	if res.childOfPatient {
		if p := query.Get("patient"); p != "" {
			id, err := strconv.Atoi(p)
			if err != nil || row["patient"] != id {
				return false
			}
		}
	}
	if res == medications {
		if active := query.Get("is_active"); active != "" && row["is_active"] != (strings.ToLower(active) == "true") {
			return false
		}
	}
	if res == appointments {
		if status := query.Get("status"); status != "" && row["status"] != status {
			return false
		}
	}
	if q := strings.TrimSpace(query.Get("search")); q != "" && len(res.searchFields) > 0 {
		for _, term := range strings.Fields(strings.ToLower(q)) {
			found := false
			for _, name := range res.searchFields {
				if value, ok := row[name].(string); ok && strings.Contains(strings.ToLower(value), term) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// orderRows sorts by the requested ordering when it names an allowed field,
// otherwise by the resource default. Ties are broken by id in the direction
// of the first key.
func orderRows(res *resource, rows []record, ordering string) {
	keys := []string{}
	for _, key := range strings.Split(ordering, ",") {
		key = strings.TrimSpace(key)
		if res.orderable(strings.TrimPrefix(key, "-")) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		keys = []string{res.defaultOrdering}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			name := strings.TrimPrefix(key, "-")
			cmp := compareValues(rows[i][name], rows[j][name])
			if strings.HasPrefix(key, "-") {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		if strings.HasPrefix(keys[0], "-") {
			return rows[i]["id"].(int) > rows[j]["id"].(int)
		}
		return rows[i]["id"].(int) < rows[j]["id"].(int)
	})
}

func pageLink(c echo.Context, page int) string {
	req := c.Request()
	query := req.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}
	link := url.URL{Scheme: c.Scheme(), Host: req.Host, Path: req.URL.Path, RawQuery: query.Encode()}
	return link.String()
}

func decodeBody(c echo.Context) (map[string]interface{}, error) {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.UseNumber()
	var body interface{}
	if err := decoder.Decode(&body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("JSON parse error - %s", err.Error()))
	}
	data, ok := body.(map[string]interface{})
	if !ok {
		return nil, &validationError{errs: map[string][]string{
			"non_field_errors": {fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", jsonType(body))},
		}}
	}
	return data, nil
}

type validationError struct {
	errs map[string][]string
}

func (e *validationError) Error() string {
	return "validation error"
}

// errorHandler renders every error as the backend does: {"detail": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var verr *validationError
	if errors.As(err, &verr) {
		_ = c.JSON(http.StatusBadRequest, verr.errs)
		return
	}

	code := http.StatusInternalServerError
	detail := "A server error occurred."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}
	switch code {
	case http.StatusNotFound:
		if detail == http.StatusText(http.StatusNotFound) {
			detail = "Not found."
		}
	case http.StatusMethodNotAllowed:
		detail = fmt.Sprintf("Method \"%s\" not allowed.", c.Request().Method)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"detail": detail})
}
