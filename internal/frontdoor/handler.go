// Package frontdoor serves the hackpack's webhook and browser endpoints.
package frontdoor

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/twilio/twilio-go/twiml"

	"github.com/tjfontaine/hackpack/internal/capability"
	"github.com/tjfontaine/hackpack/internal/config"
	"github.com/tjfontaine/hackpack/internal/server"
)

const (
	greeting = "Congratulations! You deployed the Twilio Hackpack for Heroku and Go."

	missingNumberMessage   = "You must provide a valid phone number to dial."
	missingCallerIDMessage = "Your caller ID is not configured. Set TWILIO_CALLER_ID to place calls from Twilio Client."

	contentTypeXML  = "text/xml"
	contentTypeHTML = "text/html; charset=utf-8"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ().-]{5,20}$`)

// Handler answers webhook and page requests from read-only settings.
type Handler struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{cfg: cfg, logger: logger}
}

// Mount registers the routes on r. Every POST route is a Twilio webhook and
// is wrapped by guard.
func (h *Handler) Mount(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/", h.HandleIndex)
	r.Get("/client", h.HandleClient)

	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Post("/voice", h.HandleVoice)
		r.Post("/sms", h.HandleSMS)
		r.Post("/client/incoming", h.HandleClientIncoming)
	})
}

func (h *Handler) HandleVoice(w http.ResponseWriter, r *http.Request) {
	h.writeTwiML(w, r, func() (string, error) {
		return twiml.Voice([]twiml.Element{&twiml.VoiceSay{Message: greeting}})
	})
}

func (h *Handler) HandleSMS(w http.ResponseWriter, r *http.Request) {
	h.writeTwiML(w, r, func() (string, error) {
		return twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: greeting}})
	})
}

// HandleClientIncoming answers outgoing calls placed from the browser page by
// dialing the requested number from the configured caller ID.
func (h *Handler) HandleClientIncoming(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.FormValue("PhoneNumber"))

	h.writeTwiML(w, r, func() (string, error) {
		switch {
		case !phonePattern.MatchString(number):
			server.AddLogField(r.Context(), "dial_rejected", "invalid_number")
			return twiml.Voice([]twiml.Element{&twiml.VoiceSay{Message: missingNumberMessage}})
		case h.cfg.Twilio.CallerID == "":
			server.AddLogField(r.Context(), "dial_rejected", "no_caller_id")
			return twiml.Voice([]twiml.Element{&twiml.VoiceSay{Message: missingCallerIDMessage}})
		}
		return twiml.Voice([]twiml.Element{&twiml.VoiceDial{Number: number, CallerId: h.cfg.Twilio.CallerID}})
	})
}

func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index.html", map[string]any{
		"CallerID": h.cfg.Twilio.CallerID,
	})
}

// HandleClient renders the browser calling page. Missing account settings are
// listed on the page rather than failing the request.
func (h *Handler) HandleClient(w http.ResponseWriter, r *http.Request) {
	missing := h.cfg.MissingTwilio()
	data := map[string]any{
		"ClientName": h.cfg.Client.Name,
		"Missing":    missing,
	}

	if len(missing) == 0 {
		c := capability.New(h.cfg.Twilio.AccountSID, h.cfg.Twilio.AuthToken)
		c.AllowClientOutgoing(h.cfg.Twilio.AppSID, h.cfg.Client.Name)
		c.AllowClientIncoming(h.cfg.Client.Name)

		token, err := c.Token(h.cfg.Client.TokenTTL)
		if err != nil {
			server.AddError(r.Context(), err)
			http.Error(w, "could not create capability token", http.StatusInternalServerError)
			return
		}
		data["Token"] = token
	}

	h.render(w, r, "client.html", data)
}

func (h *Handler) writeTwiML(w http.ResponseWriter, r *http.Request, build func() (string, error)) {
	body, err := build()
	if err != nil {
		server.AddError(r.Context(), err)
		h.logger.Error("failed to build twiml", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		http.Error(w, "could not build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeXML)
	w.Write([]byte(body))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		server.AddError(r.Context(), err)
		h.logger.Error("failed to render page", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Write(buf.Bytes())
}
