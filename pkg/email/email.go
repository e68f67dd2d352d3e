package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
)

type EmailService struct {
	apiKey     string
	from       string
	websiteURL string
	templates  *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type SubscriptionStartedData struct {
	Name     string
	PlanName string
}

type SubscriptionStatusChangedData struct {
	Name          string
	Reason        string
	ReactivateURL string
}

type SubscriptionRenewedData struct {
	Name string
}

type SubscriptionModifiedData struct {
	Name string
}

func NewEmailService(apiKey, from, websiteURL string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:     apiKey,
		from:       from,
		websiteURL: websiteURL,
		templates:  templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}
	return s.send(to, subject, body.String())
}

func (s *EmailService) send(to, subject, html string) error {
	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    html,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	log.Printf("Sent %q email to %s", subject, to)
	return nil
}

// Email sending methods
func (s *EmailService) SendSubscriptionStarted(to, name, planName string) error {
	data := SubscriptionStartedData{
		Name:     name,
		PlanName: planName,
	}
	subject := fmt.Sprintf("%s Your Subscription Plan Is Now Active", name)
	return s.sendTemplateEmail(to, subject, "subscription_started.html", data)
}

func (s *EmailService) SendSubscriptionStatusChanged(to, name, reason string) error {
	data := SubscriptionStatusChangedData{
		Name:          name,
		Reason:        reason,
		ReactivateURL: s.websiteURL + "/pricing",
	}
	subject := fmt.Sprintf("%s Your Subscription Plan Has Been %s", name, reason)
	return s.sendTemplateEmail(to, subject, "subscription_status_changed.html", data)
}

func (s *EmailService) SendSubscriptionRenewed(to, name string) error {
	data := SubscriptionRenewedData{
		Name: name,
	}
	subject := fmt.Sprintf("%s Your Subscription Plan Has Been Renewed", name)
	return s.sendTemplateEmail(to, subject, "subscription_renewed.html", data)
}

func (s *EmailService) SendSubscriptionModified(to, name string) error {
	data := SubscriptionModifiedData{
		Name: name,
	}
	subject := fmt.Sprintf("%s Your Subscription Plan Has Been Modified", name)
	return s.sendTemplateEmail(to, subject, "subscription_modified.html", data)
}

// SendReceipt mails pre-rendered receipt HTML as-is.
func (s *EmailService) SendReceipt(to, html string) error {
	return s.send(to, "Subscription Payment", html)
}

func (s *EmailService) SendWelcome(to, name string) error {
	data := SubscriptionRenewedData{Name: name}
	return s.sendTemplateEmail(to, "Welcome to CourseGen! 🎉", "welcome.html", data)
}
