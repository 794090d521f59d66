package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/orderfellow/orderfellow/internal/domain/order"
)

// Renderer produces the HTML bodies for customer notification emails.
type Renderer struct {
	tracking *template.Template
	status   *template.Template
	test     *template.Template
}

var statusEmojis = map[order.Status]string{
	order.StatusPending:        "⏳",
	order.StatusInTransit:      "🚚",
	order.StatusOutForDelivery: "📦",
	order.StatusDelivered:      "✅",
}

var tmplFuncs = template.FuncMap{
	"emoji": func(s order.Status) string {
		return statusEmojis[s]
	},
	"humanize": func(s order.Status) string {
		return strings.ReplaceAll(string(s), "_", " ")
	},
}

const trackingActivatedTmpl = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background: #4CAF50; color: white; padding: 20px; text-align: center; }
  .content { padding: 20px; background: #f9f9f9; }
  .status { background: #4CAF50; color: white; padding: 10px; border-radius: 5px; text-align: center; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>Order Tracking Activated</h1></div>
  <div class="content">
    <p>Hi there,</p>
    <p>Your order <strong>{{.ExternalOrderID}}</strong> is now being tracked!</p>
    <p><strong>Items:</strong> {{.ItemSummary}}</p>
    <p><strong>Delivery Address:</strong> {{.DeliveryAddress}}</p>
    <div class="status">Current Status: {{.CurrentStatus}}</div>
    <p>You'll receive updates as your order progresses.</p>
  </div>
</div>
</body>
</html>`

const statusUpdateTmpl = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background: #2196F3; color: white; padding: 20px; text-align: center; }
  .content { padding: 20px; background: #f9f9f9; }
  .status { background: #2196F3; color: white; padding: 15px; border-radius: 5px; text-align: center; font-size: 18px; }
  .note { background: #fff3cd; padding: 10px; border-left: 4px solid #ffc107; margin-top: 10px; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>Order Status Update</h1></div>
  <div class="content">
    <p>Hi there,</p>
    <p>Your order <strong>{{.Order.ExternalOrderID}}</strong> has been updated!</p>
    <div class="status">{{emoji .NewStatus}} {{humanize .NewStatus}}</div>
    {{if .Note}}<div class="note"><strong>Note:</strong> {{.Note}}</div>{{end}}
    <p><strong>Items:</strong> {{.Order.ItemSummary}}</p>
  </div>
</div>
</body>
</html>`

const testEmailTmpl = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background: #4CAF50; color: white; padding: 20px; text-align: center; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>✅ Email Configuration Test</h1></div>
  <div style="padding: 20px;">
    <p>This is a test email from My Order Fellow.</p>
    <p>If you're reading this, your email configuration is working correctly!</p>
    <p><strong>Sent at:</strong> {{.SentAt}}</p>
  </div>
</div>
</body>
</html>`

// NewRenderer parses the email templates.
func NewRenderer() *Renderer {
	return &Renderer{
		tracking: template.Must(template.New("tracking").Parse(trackingActivatedTmpl)),
		status:   template.Must(template.New("status").Funcs(tmplFuncs).Parse(statusUpdateTmpl)),
		test:     template.Must(template.New("test").Parse(testEmailTmpl)),
	}
}

// TrackingActivatedSubject builds the subject line for a tracking-activated email.
func TrackingActivatedSubject(externalOrderID string) string {
	return fmt.Sprintf("Order %s - Tracking Activated", externalOrderID)
}

// StatusUpdateSubject builds the subject line for a status-update email.
func StatusUpdateSubject(externalOrderID string) string {
	return fmt.Sprintf("Order %s - Status Update", externalOrderID)
}

// TrackingActivated renders the body of the first notification for an order.
func (r *Renderer) TrackingActivated(o *order.Order) (string, error) {
	var buf bytes.Buffer
	if err := r.tracking.Execute(&buf, o); err != nil {
		return "", fmt.Errorf("render tracking activated: %w", err)
	}
	return buf.String(), nil
}

// StatusUpdate renders the body of a status-change notification.
func (r *Renderer) StatusUpdate(o *order.Order, newStatus order.Status, note string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Order     *order.Order
		NewStatus order.Status
		Note      string
	}{o, newStatus, note}
	if err := r.status.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render status update: %w", err)
	}
	return buf.String(), nil
}

// TestEmail renders the configuration test email body.
func (r *Renderer) TestEmail(now time.Time) (string, error) {
	var buf bytes.Buffer
	data := struct{ SentAt string }{now.Format(time.RFC1123)}
	if err := r.test.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render test email: %w", err)
	}
	return buf.String(), nil
}
