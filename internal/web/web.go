// Package web serves a small local web surface over the same task store
// the terminal dashboard uses: a login page, an authenticated dashboard,
// and a JSON task API. Everything else redirects to the landing page.
package web

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskdeck/internal/engine"
	"taskdeck/internal/session"
	"taskdeck/internal/storage"
)

const (
	authCookie = "isAuthenticated"
	userCookie = "userEmail"
)

var (
	loginTemplate     = template.Must(template.New("login").Parse(loginHTML))
	dashboardTemplate = template.Must(template.New("dashboard").Parse(dashboardHTML))
)

type Server struct {
	tasks  *storage.TaskStore
	logger *slog.Logger
	app    *fiber.App
}

func NewServer(tasks *storage.TaskStore, logger *slog.Logger) *Server {
	s := &Server{tasks: tasks, logger: logger}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/", s.loginPage)
	app.Post("/login", s.login)
	app.Post("/logout", s.logout)
	app.Get("/dashboard", s.pageGuard, s.dashboard)

	api := app.Group("/api", s.apiGuard)
	api.Get("/tasks", s.listTasks)
	api.Post("/tasks", s.createTask)
	api.Patch("/tasks/:id", s.updateTask)
	api.Delete("/tasks/:id", s.deleteTask)
	api.Post("/tasks/:id/toggle", s.toggleTask)

	// Unknown routes land on the login page.
	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect("/", fiber.StatusFound)
	})

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("web surface listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func authenticated(c *fiber.Ctx) bool {
	return c.Cookies(authCookie) == "true"
}

func (s *Server) pageGuard(c *fiber.Ctx) error {
	if !authenticated(c) {
		return c.Redirect("/", fiber.StatusFound)
	}
	return c.Next()
}

func (s *Server) apiGuard(c *fiber.Ctx) error {
	if !authenticated(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}
	return c.Next()
}

func (s *Server) loginPage(c *fiber.Ctx) error {
	if authenticated(c) {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return renderHTML(c, loginTemplate, fiber.Map{})
}

func (s *Server) login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")
	if !session.Validate(email, password) {
		return renderHTML(c, loginTemplate, fiber.Map{
			"Error": "Invalid credentials: identifier needs an '@', secret needs 6+ characters.",
		})
	}

	c.Cookie(&fiber.Cookie{Name: authCookie, Value: "true", HTTPOnly: true, SessionOnly: true})
	c.Cookie(&fiber.Cookie{Name: userCookie, Value: email, HTTPOnly: true, SessionOnly: true})
	return c.Redirect("/dashboard", fiber.StatusFound)
}

func (s *Server) logout(c *fiber.Ctx) error {
	c.ClearCookie(authCookie, userCookie)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	filter := engine.ParseFilter(c.Query("filter"))
	term := c.Query("q")

	tasks := s.tasks.Load()
	visible := engine.Derive(tasks, filter, term)
	return renderHTML(c, dashboardTemplate, fiber.Map{
		"User":    c.Cookies(userCookie),
		"Total":   len(tasks),
		"Tasks":   visible,
		"Filter":  string(filter),
		"Query":   term,
		"Filters": []string{"all", "pending", "completed", "high"},
	})
}

func (s *Server) listTasks(c *fiber.Ctx) error {
	filter := engine.ParseFilter(c.Query("filter"))
	term := c.Query("q")

	return c.JSON(engine.Derive(s.tasks.Load(), filter, term))
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tasks, err := s.tasks.Mutate(func(tasks []engine.Task) []engine.Task {
		return engine.Create(tasks, engine.Input{
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			DueDate:     req.DueDate,
		})
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(tasks)
}

type patchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
	Status      *string `json:"status"`
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	var req patchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	patch := engine.Patch{Title: req.Title, Description: req.Description, DueDate: req.DueDate}
	if req.Priority != nil {
		p, err := parsePriority(*req.Priority)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		patch.Priority = &p
	}
	if req.Status != nil {
		st, err := parseStatus(*req.Status)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		patch.Status = &st
	}

	id := c.Params("id")
	tasks, err := s.tasks.Mutate(func(tasks []engine.Task) []engine.Task {
		return engine.Update(tasks, id, patch)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(tasks)
}

func (s *Server) deleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	tasks, err := s.tasks.Mutate(func(tasks []engine.Task) []engine.Task {
		return engine.Remove(tasks, id)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(tasks)
}

func (s *Server) toggleTask(c *fiber.Ctx) error {
	id := c.Params("id")
	tasks, err := s.tasks.Mutate(func(tasks []engine.Task) []engine.Task {
		return engine.Toggle(tasks, id)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(tasks)
}

func parsePriority(v string) (engine.Priority, error) {
	switch engine.Priority(strings.ToLower(strings.TrimSpace(v))) {
	case "", engine.PriorityMedium:
		return engine.PriorityMedium, nil
	case engine.PriorityLow:
		return engine.PriorityLow, nil
	case engine.PriorityHigh:
		return engine.PriorityHigh, nil
	default:
		return "", errors.New("priority must be low, medium, or high")
	}
}

func parseStatus(v string) (engine.Status, error) {
	switch engine.Status(strings.ToLower(strings.TrimSpace(v))) {
	case engine.StatusPending:
		return engine.StatusPending, nil
	case engine.StatusCompleted:
		return engine.StatusCompleted, nil
	default:
		return "", errors.New("status must be pending or completed")
	}
}

func renderHTML(c *fiber.Ctx, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

const loginHTML = `<!doctype html>
<html>
<head><title>Taskdeck</title></head>
<body>
<h1>Taskdeck</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="/login">
  <label>Email <input type="email" name="email"></label>
  <label>Password <input type="password" name="password"></label>
  <button type="submit">Sign in</button>
</form>
</body>
</html>`

const dashboardHTML = `<!doctype html>
<html>
<head><title>Taskdeck — Dashboard</title></head>
<body>
<h1>Task Manager Dashboard</h1>
<p>Welcome, {{.User}} | Total Tasks: {{.Total}}</p>
<form method="post" action="/logout"><button type="submit">Logout</button></form>
<form method="get" action="/dashboard">
  <select name="filter">
    {{range .Filters}}<option value="{{.}}" {{if eq . $.Filter}}selected{{end}}>{{.}}</option>{{end}}
  </select>
  <input type="text" name="q" value="{{.Query}}" placeholder="Search tasks">
  <button type="submit">Apply</button>
</form>
<h2>Tasks ({{len .Tasks}})</h2>
<ul>
{{range .Tasks}}
  <li>
    <strong>{{.Title}}</strong> [{{.Priority}}] {{.Status}}
    {{if .DueDate}}— due {{.DueDate}}{{end}}
    {{if .Description}}<br>{{.Description}}{{end}}
  </li>
{{else}}
  <li>No tasks match.</li>
{{end}}
</ul>
</body>
</html>`
