package ui

import (
	"bytes"
	"strings"

	"github.com/gin-gonic/gin"
)

// renderTemplate executes a template into a buffer first so a failure never
// leaves a half-written page
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.log.Error("[UI] Template error for %s: %v (data %T)", templateName, err, data)
		c.AbortWithStatusJSON(500, gin.H{"error": "Template rendering failed", "details": err.Error()})
		return
	}

	if !strings.Contains(buf.String(), "</html>") {
		s.log.Warn("[UI] Rendered template %s appears truncated - missing </html> tag", templateName)
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Writer.WriteHeader(status)
	if _, err := buf.WriteTo(c.Writer); err != nil {
		s.log.Error("[UI] Error writing template response: %v", err)
	}
}
