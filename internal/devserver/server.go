// Package devserver is an in-memory implementation of the Mingle backend
// contract for local development and end-to-end tests.
package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/logging"
)

// BasePath is the path prefix the real server is deployed under.
const BasePath = "/MyChatApp"

// maxImage bounds uploaded avatars and group images.
const maxImage = 5 << 20

// Server serves the backend contract over a State.
type Server struct {
	state  *State
	log    *zap.Logger
	engine *gin.Engine
}

// New builds a Server with an empty State.
func New(logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		state:  NewState(),
		log:    logging.OrNop(logger),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.logRequests())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// State exposes the data for seeding.
func (s *Server) State() *State { return s.state }

func (s *Server) routes() {
	api := s.engine.Group(BasePath)
	{
		api.POST("/"+backend.EndpointStart, s.start)
		api.POST("/"+backend.EndpointSignUp, s.signUp)
		api.POST("/"+backend.EndpointSignIn, s.signIn)
		api.GET("/"+backend.EndpointLoadChat, s.loadChat)
		api.GET("/"+backend.EndpointSendChat, s.sendChat)
		api.GET("/"+backend.EndpointLoadHomeData, s.loadHomeData)
		api.GET("/"+backend.EndpointLoadGroups, s.loadGroups)
		api.GET("/"+backend.EndpointLoadGroupChat, s.loadGroupChat)
		api.GET("/"+backend.EndpointSendGroup, s.sendGroup)
		api.POST("/"+backend.EndpointMakeGroup, s.makeGroup)
		api.POST("/"+backend.EndpointUpdateUser, s.updateUser)
		api.GET("/"+backend.EndpointLoadAllUsers, s.loadAllUsers)

		api.GET("/ProfileImages/:file", s.profileImage)
		api.GET("/GroupImages/:file", s.groupImage)
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("devserver request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

type credentials struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (s *Server) start(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.state.Start(req.Mobile))
}

func (s *Server) signUp(c *gin.Context) {
	avatar, err := formImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.state.SignUp(c.PostForm("name"), c.PostForm("password"), c.PostForm("mobile"), avatar)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) signIn(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.state.SignIn(req.Mobile, req.Password))
}

func (s *Server) loadChat(c *gin.Context) {
	self, peer, ok := intParams(c, c.Query, "U_id", "OU_id")
	if !ok {
		return
	}
	records, err := s.state.LoadChat(self, peer)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) sendChat(c *gin.Context) {
	self, peer, ok := intParams(c, c.Query, "U_id", "OU_id")
	if !ok {
		return
	}
	ack, err := s.state.SendChat(self, peer, c.Query("msg"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

func (s *Server) loadHomeData(c *gin.Context) {
	self, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		// The real server answers a bad id with a negative body, not a status.
		c.JSON(http.StatusOK, backend.HomeData{})
		return
	}
	c.JSON(http.StatusOK, s.state.HomeData(self))
}

func (s *Server) loadGroups(c *gin.Context) {
	self, err := strconv.Atoi(c.Query("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	rows, err := s.state.Groups(self)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) loadGroupChat(c *gin.Context) {
	self, group, ok := intParams(c, c.Query, "id", "groupId")
	if !ok {
		return
	}
	data, err := s.state.GroupChat(self, group)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) sendGroup(c *gin.Context) {
	self, group, ok := intParams(c, c.Query, "user_id", "group_id")
	if !ok {
		return
	}
	ack, err := s.state.SendGroup(self, group, c.Query("msg"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

func (s *Server) makeGroup(c *gin.Context) {
	creator, err := strconv.Atoi(c.PostForm("you"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid creator"})
		return
	}
	members, err := parseMembers(c.PostForm("groupUsers[]"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	image, err := formImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ack, err := s.state.MakeGroup(c.PostForm("groupName"), c.PostForm("groupDesc"), creator, members, image)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ack)
}

func (s *Server) updateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.PostForm("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	avatar, err := formImage(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.state.UpdateUser(id, c.PostForm("name"), avatar)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (s *Server) loadAllUsers(c *gin.Context) {
	self, _ := strconv.Atoi(c.Query("id"))
	c.JSON(http.StatusOK, s.state.Users(self))
}

func (s *Server) profileImage(c *gin.Context) {
	mobile := strings.TrimSuffix(c.Param("file"), ".png")
	img, ok := s.state.ProfileImage(mobile)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) groupImage(c *gin.Context) {
	id, err := strconv.Atoi(strings.TrimSuffix(c.Param("file"), ".png"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	img, ok := s.state.GroupImage(id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, errNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.log.Error("devserver handler failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// intParams reads two integer parameters, answering 400 when either is malformed.
func intParams(c *gin.Context, get func(string) string, a, b string) (int, int, bool) {
	x, errA := strconv.Atoi(get(a))
	y, errB := strconv.Atoi(get(b))
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s and %s must be numeric", a, b)})
		return 0, 0, false
	}
	return x, y, true
}

// parseMembers decodes the JSON array carried in groupUsers[].
func parseMembers(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []chat.ID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode groupUsers[]: %w", err)
	}
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.Atoi(string(id))
		if err != nil {
			return nil, fmt.Errorf("member id %q: %w", id, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// formImage reads the optional "image" part.
func formImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if fh.Size > maxImage {
		return nil, fmt.Errorf("image too large: %d bytes", fh.Size)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
