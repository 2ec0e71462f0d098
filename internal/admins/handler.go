package admins

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nowestinterior/backend/internal/auth"
	"github.com/nowestinterior/backend/internal/middleware"
	"github.com/nowestinterior/backend/internal/telemetry/metrics"
	"github.com/nowestinterior/backend/internal/telemetry/tracing"
	"github.com/nowestinterior/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	service      *Service
	sessions     *auth.Manager
	metrics      *metrics.Manager
	sessionTTL   time.Duration
	cookieSecure bool
}

type NewHandlerParams struct {
	Service      *Service
	Sessions     *auth.Manager
	Metrics      *metrics.Manager
	SessionTTL   time.Duration
	CookieSecure bool
}

func NewHandler(params NewHandlerParams) *Handler {
	return &Handler{
		service:      params.Service,
		sessions:     params.Sessions,
		metrics:      params.Metrics,
		sessionTTL:   params.SessionTTL,
		cookieSecure: params.CookieSecure,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginRateLimitAllowedPerMin int,
	requireAdmin func(next http.Handler) http.Handler,
) {
	adminRouter := mainRouter.PathPrefix("/api/admin").Subrouter()
	adminRouter.HandleFunc("/me", handler.handleMe).Methods("GET").Name("me")

	// creating admin accounts requires an already logged-in admin
	protectedRouter := adminRouter.PathPrefix("").Subrouter()
	protectedRouter.HandleFunc("/create-admin", handler.handleCreateAdmin).Methods("POST").Name("create-admin")
	protectedRouter.Use(requireAdmin)

	// rate limit the login and logout endpoints to prevent abuse
	loginRouter := mainRouter.PathPrefix("/api/admin").Subrouter()
	loginRouter.HandleFunc("/login", handler.handleLogin).Methods("POST").Name("login")
	loginRouter.HandleFunc("/logout", handler.handleLogout).Methods("POST").Name("logout")
	loginRouter.Use(middleware.RateLimit(rateLimiter, "admin-login", loginRateLimitAllowedPerMin, handler.metrics))
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "adminsHandler.login")
	defer span.End()

	var loginReq LoginRequest
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusInternalServerError)
			return
		}
		loginReq = LoginRequest{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if loginReq.Username == "" || loginReq.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}

	admin, err := handler.service.Authenticate(ctx, loginReq.Username, loginReq.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			handler.metrics.CounterFailedLogins.Inc()
			reqIp, _ := pkg.ReadUserIP(r)
			log.Tracef("failed login attempt for user [%s] from %s", loginReq.Username, reqIp)
			span.SetStatus(codes.Error, "invalid-credentials")
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed, authenticate: %s", err)
		span.RecordError(err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	token, err := handler.sessions.CreateSession(ctx, admin.ID)
	if err != nil {
		log.Errorf("login failed, create session: %s", err)
		span.RecordError(err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, handler.sessionCookie(token, int(handler.sessionTTL.Seconds())))

	adminBytes, err := json.Marshal(admin)
	if err != nil {
		log.Errorf("login failed, marshal admin: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterLogins.Inc()
	log.Tracef("admin [%s] logged in", admin.Username)
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONBytesResponseOK(w, adminBytes)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "adminsHandler.logout")
	defer span.End()

	// logout is idempotent: no cookie, unknown or already removed token all
	// produce the same success response
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := handler.sessions.DeleteSession(ctx, cookie.Value); err != nil {
			log.Errorf("logout, delete session: %s", err)
			span.RecordError(err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, handler.sessionCookie("", -1))
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONResponseOK(w, `{"message":"Successfully logged out"}`)
}

func (handler *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "adminsHandler.me")
	defer span.End()

	cookie, err := r.Cookie(auth.SessionCookieName)
	if err != nil || cookie.Value == "" {
		span.SetStatus(codes.Error, "missing-session-cookie")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	adminID, found, err := handler.sessions.SessionAdminID(ctx, cookie.Value)
	if err != nil {
		log.Errorf("get current admin, session lookup: %s", err)
		span.RecordError(err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		span.SetStatus(codes.Error, "invalid-session")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	admin, err := handler.service.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			// session is valid but the admin record is gone - do not trust
			// the session blindly
			span.SetStatus(codes.Error, "admin-gone")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		log.Errorf("get current admin: %s", err)
		span.RecordError(err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	adminBytes, err := json.Marshal(admin)
	if err != nil {
		log.Errorf("get current admin, marshal: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONBytesResponseOK(w, adminBytes)
}

func (handler *Handler) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "adminsHandler.createAdmin")
	defer span.End()

	var createReq LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		log.Errorf("create admin, unmarshal json params: %s", err)
		http.Error(w, "create admin failed", http.StatusBadRequest)
		return
	}

	if createReq.Username == "" || createReq.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}

	admin, err := handler.service.CreateAdmin(ctx, createReq.Username, createReq.Password)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			span.SetStatus(codes.Error, "username-taken")
			pkg.WriteResponse(w, pkg.ContentType.JSON, `{"error":"username already taken"}`, http.StatusConflict)
			return
		}
		log.Errorf("create admin: %s", err)
		span.RecordError(err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	adminBytes, err := json.Marshal(admin)
	if err != nil {
		log.Errorf("create admin, marshal: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterAdminsCreated.Inc()
	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSONBytesResponseOK(w, adminBytes)
}

func (handler *Handler) sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   handler.cookieSecure,
	}
}
