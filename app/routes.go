package app

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/eventhub/errors"
	"github.com/kbukum/eventhub/producer"
	"github.com/kbukum/eventhub/server"
	"github.com/kbukum/eventhub/sse"
	"github.com/kbukum/eventhub/validation"
)

// CommandSucceeded is the body of a successful POST /cmd.
const CommandSucceeded = "Successfully ran command."

//go:embed templates
var templateFS embed.FS

// CreateUserRequest is the POST /users body.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

// User is returned by POST /users.
type User struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// demoUserID is the fixed ID given to every created user; nothing is stored.
const demoUserID = 1337

type pageData struct {
	Name       string
	StreamPath string
	Command    string
}

// Routes holds the HTTP handlers of the service.
type Routes struct {
	hub     *sse.Hub
	command *producer.Command
	stream  sse.StreamConfig
	page    pageData
	styles  []byte
}

// NewRoutes parses the embedded templates.
func NewRoutes(name string, hub *sse.Hub, command *producer.Command, stream sse.StreamConfig) (*Routes, error) {
	styles, err := templateFS.ReadFile("templates/styles.css")
	if err != nil {
		return nil, err
	}
	return &Routes{
		hub:     hub,
		command: command,
		stream:  stream,
		page:    pageData{Name: name, StreamPath: stream.Path, Command: command.Config().Command.String()},
		styles:  styles,
	}, nil
}

// Register mounts the routes on s.
func (r *Routes) Register(s *server.Server) error {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return err
	}
	e := s.GinEngine()
	e.SetHTMLTemplate(tmpl)

	e.GET("/", r.Index)
	e.GET("/stream", r.StreamPage)
	e.GET("/styles.css", r.Styles)
	e.GET(r.stream.Path, sse.Handler(r.hub, r.stream))
	e.POST("/cmd", s.RateLimited(), r.Command)
	e.POST("/users", r.CreateUser)
	return nil
}

// Index renders the landing page.
func (r *Routes) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", r.page)
}

// StreamPage renders the page that subscribes to the event stream.
func (r *Routes) StreamPage(c *gin.Context) {
	c.HTML(http.StatusOK, "stream.html", r.page)
}

// Styles serves the stylesheet.
func (r *Routes) Styles(c *gin.Context) {
	c.Data(http.StatusOK, "text/css; charset=utf-8", r.styles)
}

// Command runs the configured command and broadcasts its output.
func (r *Routes) Command(c *gin.Context) {
	if _, err := r.command.Trigger(c.Request.Context()); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondMessage(c, CommandSucceeded)
}

// CreateUser echoes the username back with a fixed ID.
func (r *Routes) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.InvalidInput("body", "must be a JSON object").WithCause(err))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, User{ID: demoUserID, Username: req.Username})
}
