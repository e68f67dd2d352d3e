// pkg/email/service.go
package email

var GlobalEmailService *EmailService

func InitEmailService(apiKey, from, websiteURL string) error {
	service, err := NewEmailService(apiKey, from, websiteURL)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
