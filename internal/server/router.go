package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/whitelex/ai-writer-assistant/internal/accounts"
	"github.com/whitelex/ai-writer-assistant/internal/ai"
	"github.com/whitelex/ai-writer-assistant/internal/books"
	"go.uber.org/zap"
)

const userContextKey = "inkwell_user"

var (
	errMissingAccountsService = errors.New("accounts service dependency required")
	errMissingTokenManager    = errors.New("token manager dependency required")
	errMissingBooksService    = errors.New("books service dependency required")
	errMissingAIGateway       = errors.New("ai gateway dependency required")
	errInvalidAuthorization   = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates session tokens.
type TokenManager interface {
	IssueToken(user accounts.User) (string, int64, error)
	ValidateToken(token string) (accounts.User, error)
}

// AIGateway is the outbound text-transformation service.
type AIGateway interface {
	FixGrammar(ctx context.Context, html string) (string, error)
	ExpandText(ctx context.Context, snippet, fullHTML string) (string, error)
}

// Dependencies wires the HTTP handler to its collaborators.
type Dependencies struct {
	AccountsService *accounts.Service
	TokenManager    TokenManager
	BooksService    *books.Service
	AIGateway       AIGateway
	Logger          *zap.Logger
}

// NewHTTPHandler builds the gin router for the studio API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.AccountsService == nil {
		return nil, errMissingAccountsService
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.BooksService == nil {
		return nil, errMissingBooksService
	}
	if deps.AIGateway == nil {
		return nil, errMissingAIGateway
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		accountsService: deps.AccountsService,
		tokens:          deps.TokenManager,
		booksService:    deps.BooksService,
		aiGateway:       deps.AIGateway,
		logger:          logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.POST("/signup", handler.handleSignup)
	router.POST("/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/books", handler.handleListBooks)
	protected.POST("/save", handler.handleSave)
	protected.POST("/ai/grammar", handler.handleGrammar)
	protected.POST("/ai/expand", handler.handleExpand)

	return router, nil
}

type httpHandler struct {
	accountsService *accounts.Service
	tokens          TokenManager
	booksService    *books.Service
	aiGateway       AIGateway
	logger          *zap.Logger
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponsePayload struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type savePayload struct {
	UserID string       `json:"userId"`
	Books  []books.Book `json:"books"`
}

type aiRequestPayload struct {
	Content string `json:"content"`
	Snippet string `json:"snippet"`
	Context string `json:"context"`
}

type aiResponsePayload struct {
	Original   string `json:"original"`
	Suggestion string `json:"suggestion"`
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleSignup(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.accountsService.Signup(c.Request.Context(), request.Email, request.Password)
	if errors.Is(err, accounts.ErrMissingFields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if errors.Is(err, accounts.ErrDuplicateEmail) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a writer with this email already exists"})
		return
	}
	if err != nil {
		h.logger.Error("signup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account", "details": err.Error(), "code": "signup_failed"})
		return
	}

	h.respondWithSession(c, http.StatusCreated, user)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.accountsService.Login(c.Request.Context(), request.Email, request.Password)
	if errors.Is(err, accounts.ErrMissingFields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if errors.Is(err, accounts.ErrLoginInvalid) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed", "details": err.Error(), "code": "login_failed"})
		return
	}

	h.respondWithSession(c, http.StatusOK, user)
}

func (h *httpHandler) respondWithSession(c *gin.Context, status int, user accounts.User) {
	token, expiresIn, err := h.tokens.IssueToken(user)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(status, authResponsePayload{
		ID:        user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

func (h *httpHandler) handleListBooks(c *gin.Context) {
	userID, ok := h.requestedUserID(c, c.Query("userId"))
	if !ok {
		return
	}

	result, err := h.booksService.ListBooks(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list books", zap.Error(err), zap.String("user_id", userID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed", "details": err.Error(), "code": "books_query_failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleSave(c *gin.Context) {
	var request savePayload
	if err := c.ShouldBindJSON(&request); err != nil || request.Books == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and books array are required"})
		return
	}
	userID, ok := h.requestedUserID(c, request.UserID)
	if !ok {
		return
	}

	if err := h.booksService.ReplaceBooks(c.Request.Context(), userID, request.Books); err != nil {
		if errors.Is(err, books.ErrInvalidBookID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every book requires an id"})
			return
		}
		h.logger.Error("failed to save books", zap.Error(err), zap.String("user_id", userID.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database save failed", "details": err.Error(), "code": "books_save_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *httpHandler) handleGrammar(c *gin.Context) {
	var request aiRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	suggestion, err := h.aiGateway.FixGrammar(c.Request.Context(), request.Content)
	if err != nil {
		h.respondAIError(c, err)
		return
	}
	c.JSON(http.StatusOK, aiResponsePayload{Original: request.Content, Suggestion: suggestion})
}

func (h *httpHandler) handleExpand(c *gin.Context) {
	var request aiRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Snippet) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "snippet is required"})
		return
	}

	suggestion, err := h.aiGateway.ExpandText(c.Request.Context(), request.Snippet, request.Context)
	if err != nil {
		h.respondAIError(c, err)
		return
	}
	c.JSON(http.StatusOK, aiResponsePayload{Original: request.Snippet, Suggestion: suggestion})
}

func (h *httpHandler) respondAIError(c *gin.Context, err error) {
	if errors.Is(err, ai.ErrUnavailable) {
		h.logger.Warn("ai service unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ai service unavailable"})
		return
	}
	h.logger.Error("ai request failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "ai request failed"})
}

// requestedUserID validates the userId a request targets and enforces that it
// matches the authenticated session.
func (h *httpHandler) requestedUserID(c *gin.Context, raw string) (books.UserID, bool) {
	userID, err := books.NewUserID(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return "", false
	}
	sessionUser, ok := c.Get(userContextKey)
	user, cast := sessionUser.(accounts.User)
	if !ok || !cast || user.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	if user.ID != userID.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return "", false
	}
	return userID, true
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	user, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(userContextKey, user)
	c.Next()
}
