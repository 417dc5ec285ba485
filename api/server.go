package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatwire/apperr"
	"chatwire/metrics"
	"chatwire/models"
	"chatwire/presence"
	"chatwire/ratelimit"
	"chatwire/store"
)

// TokenVerifier abstracts the OIDC collaborator: raw bearer token in, user
// identity out.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// Sender abstracts the delivery dispatcher.
type Sender interface {
	Send(ctx context.Context, senderID, receiverID string, p models.Payload) (models.Message, error)
}

type Server struct {
	mux       *http.ServeMux
	sender    Sender
	messages  store.MessageStore
	users     store.UserStore
	registry  *presence.Registry
	verifier  TokenVerifier
	validator *SendValidator
	limiter   ratelimit.Limiter
	ready     func(ctx context.Context) error
	log       *zap.SugaredLogger
}

type ServerOptions struct {
	Sender    Sender
	Messages  store.MessageStore
	Users     store.UserStore
	Registry  *presence.Registry
	Verifier  TokenVerifier
	Validator *SendValidator
	// Limiter and Ready are optional: a nil limiter disables rate limiting
	// and a nil ready func reports always-ready.
	Limiter ratelimit.Limiter
	Ready   func(context.Context) error
	Log     *zap.SugaredLogger
}

func NewServer(opts ServerOptions) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		sender:    opts.Sender,
		messages:  opts.Messages,
		users:     opts.Users,
		registry:  opts.Registry,
		verifier:  opts.Verifier,
		validator: opts.Validator,
		limiter:   opts.Limiter,
		ready:     opts.Ready,
		log:       opts.Log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /messages/users", s.withAuth(s.handleListUsers))
	s.mux.HandleFunc("GET /messages/{peerId}", s.withAuth(s.handleConversation))
	s.mux.HandleFunc("POST /messages/send/{peerId}", s.withAuth(s.handleSend))
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

type ctxKey int

const userIDKey ctxKey = 0

// withAuth verifies the Bearer token and stashes the caller identity in the
// request context. The core trusts this identity unconditionally.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		userID, err := s.verifier.Verify(r.Context(), strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsersExcept(r.Context(), callerID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	peer := r.PathValue("peerId")
	if _, err := s.users.GetUser(r.Context(), peer); err != nil {
		s.writeError(w, err)
		return
	}
	msgs, err := s.messages.ListConversation(r.Context(), callerID(r), peer)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// sendRequest is the wire shape of POST /messages/send/{peerId}. It is
// narrowed to a models.Payload exactly once, here at the boundary.
type sendRequest struct {
	Content  string             `json:"content,omitempty"`
	FileData string             `json:"fileData,omitempty"`
	Kind     models.MessageKind `json:"kind,omitempty"`
}

func (req sendRequest) payload() (models.Payload, error) {
	kind := req.Kind
	if kind == "" {
		kind = models.KindText
	}
	switch kind {
	case models.KindText:
		return models.TextPayload{Text: req.Content}, nil
	case models.KindImage:
		return models.ImagePayload{DataURI: req.FileData, Caption: req.Content}, nil
	case models.KindVoice:
		return models.VoicePayload{DataURI: req.FileData, Caption: req.Content}, nil
	default:
		return nil, apperr.ValidationError{Reason: "unknown message kind " + string(kind)}
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	sender := callerID(r)
	if s.limiter != nil {
		if err := s.limiter.Allow(r.Context(), sender); err != nil {
			s.writeError(w, err)
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if s.validator != nil {
		if err := s.validator.Validate(body); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	var req sendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed json")
		return
	}
	payload, err := req.payload()
	if err != nil {
		s.writeError(w, err)
		return
	}

	msg, err := s.sender.Send(r.Context(), sender, r.PathValue("peerId"), payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleWS authenticates via the token query parameter (browsers cannot set
// headers on websocket upgrades), registers the session, and blocks on the
// read loop until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSONError(w, http.StatusUnauthorized, "token not provided")
		return
	}
	userID, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorw("websocket upgrade failed", "err", err)
		return
	}
	session := newWSSession(conn)
	s.registry.Register(userID, session)
	defer func() {
		s.registry.Unregister(session)
		_ = conn.Close()
	}()

	// This channel is server-push only; the read loop exists to observe
	// disconnects and drain client control frames.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSONError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// writeError maps the error taxonomy onto HTTP statuses. Anything unmatched
// is an internal error and its detail stays out of the response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr apperr.ValidationError
	var nferr apperr.NotFoundError
	var uerr apperr.UploadError
	switch {
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, verr.Reason)
	case errors.As(err, &nferr):
		writeJSONError(w, http.StatusNotFound, nferr.Error())
	case errors.As(err, &uerr):
		writeJSONError(w, http.StatusBadGateway, "media upload failed")
	case errors.Is(err, ratelimit.ErrLimited):
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
	default:
		s.log.Errorw("internal error", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
