package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bloodbank/internal/apperr"
	"github.com/iliyamo/bloodbank/internal/model"
	"github.com/iliyamo/bloodbank/internal/repository"
)

// SupportHandler serves the contact form and support inbox.
type SupportHandler struct {
	Support *repository.SupportRepo
}

// NewSupportHandler returns a SupportHandler backed by r.
func NewSupportHandler(r *repository.SupportRepo) *SupportHandler {
	return &SupportHandler{Support: r}
}

type faq struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var faqs = []faq{
	{"Who can donate blood?", "Most healthy adults aged 18 to 65 who weigh at least 50 kg can donate. Staff will run a short health check before every donation."},
	{"How often can I donate?", "Whole blood can be donated every 56 days. The dashboard shows your next eligible date."},
	{"What about double red cell donations?", "Double red cell donations usually need a longer gap of 112 days. Ask the centre staff before booking; the online eligibility check only applies the 56-day rule."},
	{"How long does a donation take?", "The donation itself takes about 10 minutes; allow an hour for registration, screening and refreshments."},
	{"Is donating blood safe?", "Yes. Every needle and bag is sterile and used only once."},
	{"What should I do after donating?", "Rest for a few minutes, drink plenty of fluids and avoid heavy exercise for the rest of the day."},
}

// FAQs returns the static question list.
func FAQs(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"faqs": faqs})
}

type supportReq struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// supportType normalises the ticket category.
func supportType(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medical":
		return "Medical", true
	case "technical":
		return "Technical", true
	}
	return "", false
}

// CreateQuery files a support ticket and returns its reference.
func (h *SupportHandler) CreateQuery(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return err
	}
	var req supportReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	typ, ok := supportType(req.Type)
	if !ok {
		return apperr.Validation("type must be Medical or Technical")
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		return apperr.Validation("subject and message required")
	}

	q := &model.SupportQuery{UserID: s.UserID, Type: typ, Subject: req.Subject, Message: strings.TrimSpace(req.Message)}
	if err := h.Support.CreateQuery(c.Request().Context(), q); err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Your query has been submitted.", "reference": q.Reference})
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Contact stores a message from the public contact form.
func (h *SupportHandler) Contact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	m := &model.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Message: strings.TrimSpace(req.Message),
	}
	if m.Name == "" || m.Email == "" || m.Message == "" {
		return apperr.Validation("name, email and message required")
	}
	if !strings.Contains(m.Email, "@") {
		return apperr.Validation("invalid email")
	}
	if err := h.Support.CreateContact(c.Request().Context(), m); err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Thank you for contacting us."})
}
