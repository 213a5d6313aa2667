package notify

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"shopping-service/internal/models"
)

// Message is one alert addressed to a role.
type Message struct {
	Role  models.Role
	Title string
	Body  string
}

// ItemAdded tells the shopper the lister added something.
func ItemAdded(e *models.ItemAddedEvent) Message {
	return Message{
		Role:  models.RoleLister.Other(),
		Title: "New Item Added",
		Body:  fmt.Sprintf("%s (%s) was added to your list.", e.Name, e.Quantity),
	}
}

// ShoppingStarted tells the lister the shopper is on the way.
func ShoppingStarted(e *models.SessionStartedEvent) Message {
	return Message{
		Role:  models.RoleShopper.Other(),
		Title: "Shopping Started",
		Body:  fmt.Sprintf("The shopper has begun at %s.", displayStore(e.FirstStore)),
	}
}

// ShoppingCompleted tells the lister the summary is ready.
func ShoppingCompleted(*models.SessionCompletedEvent) Message {
	return Message{
		Role:  models.RoleShopper.Other(),
		Title: "Shopping Complete",
		Body:  "Tap to view the shopping summary.",
	}
}

func displayStore(store string) string {
	if store == "" {
		return "the first store"
	}
	r, size := utf8.DecodeRuneInString(store)
	return string(unicode.ToUpper(r)) + store[size:]
}
