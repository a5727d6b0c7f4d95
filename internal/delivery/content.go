package delivery

import (
	"fmt"
	"regexp"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render performs moustache-style replacement for {{key}} placeholders.
// Unknown placeholders are left as-is.
func Render(template string, variables map[string]interface{}) string {
	if template == "" || len(variables) == 0 {
		return template
	}

	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		submatch := placeholderRegex.FindStringSubmatch(match)
		if len(submatch) != 2 {
			return match
		}
		key := submatch[1]
		if value, ok := variables[key]; ok {
			return fmt.Sprint(value)
		}
		return match
	})
}

type contentTemplate struct {
	Subject string
	Body    string
}

// kindTemplates holds the fixed per-kind message content. Loaded once at
// process start; read-only afterwards.
var kindTemplates = map[string]contentTemplate{
	"order_created": {
		Subject: "Order #{{order_id}} received",
		Body:    "We received your order #{{order_id}} and will start preparing it shortly.",
	},
	"order_cooking": {
		Subject: "Order #{{order_id}} is being prepared",
		Body:    "Your order #{{order_id}} is now in the kitchen.",
	},
	"order_ready": {
		Subject: "Order #{{order_id}} is ready",
		Body:    "Your order #{{order_id}} is ready.",
	},
	"order_delivering": {
		Subject: "Order #{{order_id}} is on its way",
		Body:    "A courier is on the way with your order #{{order_id}}.",
	},
	"order_completed": {
		Subject: "Order #{{order_id}} delivered",
		Body:    "Your order #{{order_id}} has been delivered. Enjoy!",
	},
	"order_cancelled": {
		Subject: "Order #{{order_id}} cancelled",
		Body:    "Your order #{{order_id}} was cancelled. Contact the restaurant for details.",
	},
}

// Content renders the subject and body for a notification kind. Kinds without
// a template fall back to a generic line carrying the kind name.
func Content(kind string, variables map[string]interface{}) (subject, body string) {
	tpl, ok := kindTemplates[kind]
	if !ok {
		return kind, Render("Notification: "+kind, variables)
	}
	return Render(tpl.Subject, variables), Render(tpl.Body, variables)
}
