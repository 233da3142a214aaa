package server

import (
	"fmt"
	"time"

	"github.com/matthewbaird/inplace/internal/types"
)

// UserModel is the model name used in form keys and field ids.
const UserModel = "user"

// Countries is the country collection offered by the demo page.
var Countries = types.Options{
	{Value: "1", Label: "Spain"},
	{Value: "2", Label: "Italy"},
	{Value: "3", Label: "France"},
	{Value: "4", Label: "Germany"},
}

// EmailPreference labels the receive_email toggle.
var EmailPreference = types.Options{
	{Value: "false", Label: "No thanks"},
	{Value: "true", Label: "Yes of course"},
}

// DemoUser returns the seeded user.
func DemoUser(now time.Time) map[string]types.Value {
	return map[string]types.Value{
		"name":          types.Some("Lucia"),
		"last_name":     types.Some("Napoli"),
		"email":         types.Some("lucianapoli@gmail.com"),
		"address":       types.Some("Via Roma 99"),
		"zip":           types.Some("25123"),
		"country":       types.Some("2"),
		"receive_email": types.Some("false"),
		"birth_date":    types.Some(now.UTC().Format("2006-01-02")),
		"description":   types.Some("Lorem ipsum dolor sit amet, consectetur adipiscing elit. Vivamus a lectus et lacus ultrices auctor."),
		"money":         types.Some("100"),
	}
}

// displayAs is the server-side rendering returned with confirmed values.
// Attributes without one leave rendering to the client.
func displayAs(attribute string, v types.Value) *string {
	if attribute != "address" || v.IsNil() {
		return nil
	}
	s := fmt.Sprintf(addressPattern, v.Text)
	return &s
}

const addressPattern = "addr => [%s]"

// keyedErrors lists attributes whose validation errors are answered as
// {"errors": {"<attribute>": [...]}} instead of an array of full messages.
var keyedErrors = map[string]bool{"last_name": true}
