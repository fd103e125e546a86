package email

import (
	"testing"

	"closetry/internal/config"
	"closetry/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestServiceDisabledWithoutCredentials(t *testing.T) {
	svc := NewService(&config.Config{MailgunDomain: "mg.example.com"})
	assert.False(t, svc.IsEnabled())
	assert.Error(t, svc.SendWelcomeEmail(&models.User{Email: "a@example.com"}))

	var nilSvc *Service
	assert.False(t, nilSvc.IsEnabled())

	svc = NewService(&config.Config{MailgunDomain: "mg.example.com", MailgunAPIKey: "key"})
	assert.True(t, svc.IsEnabled())
}

func TestWelcomeHTMLEscapesUserInput(t *testing.T) {
	user := &models.User{Username: "<script>alert(1)</script>", Email: "a@example.com"}

	body := welcomeHTML(user)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, welcomeText(user), user.Username)
}
