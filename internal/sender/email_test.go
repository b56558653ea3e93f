package sender

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gopkgmail "gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gopkgmail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gopkgmail.Message) error {
	f.sent = append(f.sent, m...)
	return nil
}

func newTestSender() (*EmailSender, *fakeDialer) {
	d := &fakeDialer{}
	return &EmailSender{from: "noreply@memorial.test", tmplDir: "../../templates", dialer: d}, d
}

func TestRender_OrderConfirmation(t *testing.T) {
	s, _ := newTestSender()
	data := map[string]any{
		"Name":         "Jane <Doe>",
		"OrderID":      "o-1",
		"ObituaryName": "John Smith",
		"Items": []any{
			map[string]any{"product_name": "Oak", "variant_name": "Small", "quantity": 2, "unit_price": "19.95"},
		},
		"Subtotal": "39.90",
		"Tax":      "3.19",
		"Total":    "43.09",
		"Currency": "USD",
	}

	html, plain, err := s.Render("order_confirmation", data)
	require.NoError(t, err)

	assert.Contains(t, html, "Jane &lt;Doe&gt;")
	assert.Contains(t, html, "Oak (Small)")
	assert.Contains(t, html, "John Smith")
	assert.Contains(t, plain, "Thank you, Jane <Doe>")
	assert.Contains(t, plain, "- Oak (Small) x2 19.95")
	assert.Contains(t, plain, "Total: 43.09 USD")
}

func TestRender_WithoutMemorial(t *testing.T) {
	s, _ := newTestSender()
	_, plain, err := s.Render("order_confirmation", map[string]any{"OrderID": "o-2", "Total": "1.08", "Currency": "USD"})
	require.NoError(t, err)
	assert.NotContains(t, plain, "memorial of")
}

func TestRender_UnknownTemplate(t *testing.T) {
	s, _ := newTestSender()
	_, _, err := s.Render("missing", nil)
	assert.Error(t, err)
}

func TestSendEmail(t *testing.T) {
	s, d := newTestSender()
	err := s.SendEmail(Email{
		To:       "jane@example.com",
		Subject:  "Refund",
		Template: "order_refunded",
		Data:     map[string]any{"OrderID": "o-3", "Amount": "10.00", "Currency": "USD"},
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"jane@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"noreply@memorial.test"}, d.sent[0].GetHeader("From"))
}
