package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/streamchat-server/internal/auth"
	"github.com/vovakirdan/streamchat-server/internal/core"
	"github.com/vovakirdan/streamchat-server/internal/utils"
)

// WSOptions configures the chat WebSocket endpoint.
type WSOptions struct {
	MaxMessageBytes    int64
	RateLimitPerMinute int
	SessionBuffer      int
	MaxChatMessageLen  int
}

// WSHandler upgrades HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	hub         *core.Hub
	gateway     core.ChatGateway
	dispatcher  core.Dispatcher
	censor      core.Censor
	authService *auth.Service
	opts        WSOptions
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. authService may be nil, which
// makes every connection anonymous.
func NewWSHandler(hub *core.Hub, gateway core.ChatGateway, dispatcher core.Dispatcher, censor core.Censor, authService *auth.Service, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:         hub,
		gateway:     gateway,
		dispatcher:  dispatcher,
		censor:      censor,
		authService: authService,
		opts:        opts,
		log:         logger,
	}
}

// authenticate resolves the optional token of the request. A request without
// a token is anonymous; a request with a bad token is rejected.
func (h *WSHandler) authenticate(r *stdhttp.Request) (*core.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); header != "" {
			var ok bool
			if token, ok = bearerToken(header); !ok {
				return nil, auth.ErrInvalidToken
			}
		}
	}
	if token == "" || h.authService == nil {
		return nil, nil
	}

	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &core.Identity{UserID: claims.UserID, Nickname: claims.Nickname}, nil
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws rejected: invalid token")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stdhttp.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "invalid token"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	clientID := utils.NewID()
	logger := h.log.With().Str("client_id", clientID).Logger()
	session := core.NewSession(core.SessionConfig{
		Hub:           h.hub,
		Gateway:       h.gateway,
		Dispatcher:    h.dispatcher,
		Censor:        h.censor,
		Log:           logger,
		User:          user,
		Buffer:        h.opts.SessionBuffer,
		MaxMessageLen: h.opts.MaxChatMessageLen,
	})
	logger.Debug().Bool("anonymous", user == nil).Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan string, max(h.opts.SessionBuffer, 1))
	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		_ = session.Run(ctx, inbound)
	}()

	limiter := newRateLimiter(h.opts.RateLimitPerMinute)
	errCh := make(chan error, 2)
	go func() {
		defer close(inbound)
		errCh <- h.readLoop(ctx, conn, inbound, limiter, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session.Out(), &logger)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh
	<-sessionDone

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	logger.Debug().Msg("ws disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, inbound chan<- string, limiter *rateLimiter, logger *zerolog.Logger) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("read ws frame")
			return err
		}
		if typ != websocket.MessageText {
			logger.Debug().Msg("ignoring binary frame")
			continue
		}

		if !limiter.allow() {
			if err := conn.Write(ctx, websocket.MessageText, []byte(core.ErrRateLimited.Frame())); err != nil {
				return err
			}
			continue
		}

		select {
		case inbound <- string(data):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan string, logger *zerolog.Logger) error {
	for {
		select {
		case frame, ok := <-out:
			if !ok {
				return nil
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
				logger.Error().Err(err).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
