package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fnaterm/internal/export"
	"fnaterm/internal/fna"
	"fnaterm/internal/render"
	"fnaterm/internal/storage"
)

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string { return fna.FormatCurrency(d) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "—"
			}
			return t.In(s.cfg.Location).Format("Jan 2, 2006 15:04")
		},
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAuth is the authentication entry point. A valid ?token= is stored in
// the session cookie; otherwise a sign-in notice is shown.
func (s *Server) handleAuth(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if token := c.Query("token"); token != "" {
		if _, err := ParseToken(s.cfg.AnonKey, token); err == nil {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookie, token, int(s.cfg.TokenTTL.Seconds()), "/", "", s.cfg.Production, true)
			c.Redirect(http.StatusFound, next)
			return
		}
		c.HTML(http.StatusUnauthorized, "auth", gin.H{"Next": next, "Error": "That sign-in link is invalid or expired."})
		return
	}
	c.HTML(http.StatusOK, "auth", gin.H{"Next": next})
}

func (s *Server) handleDashboard(c *gin.Context) {
	sessions, err := s.sessions.ListSessions(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.HTML(http.StatusInternalServerError, "error", gin.H{"Message": "Error loading sessions."})
		return
	}
	c.HTML(http.StatusOK, "dashboard", gin.H{
		"Agent":    c.GetString(agentKey),
		"Sessions": sessions,
	})
}

func (s *Server) handleDashboardDetail(c *gin.Context) {
	id := c.Param("id")
	sess, err := s.sessions.SessionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.HTML(http.StatusNotFound, "error", gin.H{"Message": "Session not found."})
			return
		}
		_ = c.Error(err)
		c.HTML(http.StatusInternalServerError, "error", gin.H{"Message": "Error loading session."})
		return
	}
	c.HTML(http.StatusOK, "detail", gin.H{
		"Session": sess,
		"PDFURL":  fmt.Sprintf("/fna/%s/pdf", sess.ID),
	})
}

// handlePDF responds only after the whole document is rendered; a failed
// render sends no PDF bytes.
func (s *Server) handlePDF(c *gin.Context) {
	id := c.Param("id")
	out, err := s.renderer.Render(c.Request.Context(), id)
	if err != nil {
		s.metrics.Renders.WithLabelValues("error").Inc()
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to render document"})
		return
	}
	s.metrics.Renders.WithLabelValues("ok").Inc()
	s.metrics.RenderBytes.Observe(float64(len(out)))

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, render.Filename(id)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", out)
}

func (s *Server) handleExportSessions(c *gin.Context) {
	sessions, err := s.sessions.ListSessions(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
		return
	}
	var buf bytes.Buffer
	if err := export.WriteSessions(&buf, sessions, s.cfg.Location); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to build workbook"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="fna-sessions.xlsx"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
