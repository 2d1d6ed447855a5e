package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/otp.html
var templateFS embed.FS

var otpTemplate = template.Must(template.ParseFS(templateFS, "templates/otp.html"))

type otpData struct {
	Code      string
	Recipient string
	Year      int
}

func renderOTP(data otpData) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("mail: render otp template: %w", err)
	}
	return buf.String(), nil
}
