package mailer

import (
	"bytes"
	"html/template"
)

var checkoutQRTemplate = template.Must(template.New("checkout-qr").Parse(`<h1>Checkout Successful!</h1>
<p>Thank you for checking out with Oromia Hinlala.</p>
<p>Please find your QR code attached to this email. You can use it to verify your checkout.</p>
<p>Verification link: <a href="{{.URL}}">{{.URL}}</a></p>
<p><b>Note:</b> This QR code is unique to your checkout and should be kept confidential.</p>
`))

// CheckoutQRMessage builds the confirmation email carrying the QR code
// PNG that encodes verifyURL.
func CheckoutQRMessage(to, verifyURL string, qrPNG []byte) (Message, error) {
	var body bytes.Buffer
	if err := checkoutQRTemplate.Execute(&body, struct{ URL string }{verifyURL}); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Your Checkout QR Code",
		HTML:    body.String(),
		Attachments: []Attachment{{
			Filename:    "qr-code.png",
			ContentType: "image/png",
			Data:        qrPNG,
		}},
	}, nil
}
