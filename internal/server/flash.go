package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notebook"
	"github.com/gin-gonic/gin"
)

const (
	flashCookieName   = "quicknote_flash"
	flashCookieMaxAge = 60
)

type flashPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// writeFlash carries messages across the redirect that follows a form post.
func writeFlash(c *gin.Context, messages []notebook.Message) {
	if len(messages) == 0 {
		return
	}
	payload := make([]flashPayload, 0, len(messages))
	for _, message := range messages {
		payload = append(payload, flashPayload{Level: string(message.Level), Text: message.Text})
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(encoded),
		Path:     "/",
		MaxAge:   flashCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// consumeFlash publishes pending flash messages to inbox and clears the cookie.
func consumeFlash(c *gin.Context, inbox *notebook.Inbox) {
	cookie, err := c.Request.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return
	}
	var payload []flashPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return
	}
	for _, message := range payload {
		inbox.Publish(notebook.Message{Level: notebook.Level(message.Level), Text: message.Text})
	}
}
