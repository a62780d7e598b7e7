package dto

import (
	"sorvetao/internal/domain/catalogs/client"
)

// ClientResponse is a client as the client picker shows it.
type ClientResponse struct {
	ID                      string        `json:"id"`
	Name                    string        `json:"name"`
	ContactPerson           *string       `json:"contactPerson,omitempty"`
	Email                   *string       `json:"email,omitempty"`
	Document                *string       `json:"document,omitempty"`
	Address                 string        `json:"address"`
	DeliveryDays            string        `json:"deliveryDays"`
	Status                  client.Status `json:"status"`
	DeliveryEnabled         bool          `json:"deliveryEnabled"`
	DeliveryFee             string        `json:"deliveryFee"`
	MinimumOrderForDelivery string        `json:"minimumOrderForDelivery"`
}

// FromClient maps a client. A nil client maps to nil.
func FromClient(c *client.Client) *ClientResponse {
	if c == nil {
		return nil
	}
	return &ClientResponse{
		ID:                      c.ID,
		Name:                    c.Name,
		ContactPerson:           c.ContactPerson,
		Email:                   c.Email,
		Document:                c.Document,
		Address:                 c.Address,
		DeliveryDays:            c.DeliveryDays,
		Status:                  c.Status,
		DeliveryEnabled:         c.DeliveryEnabled,
		DeliveryFee:             Money(c.DeliveryFee),
		MinimumOrderForDelivery: Money(c.MinimumOrderForDelivery),
	}
}

// FromClients maps a client list.
func FromClients(list []*client.Client) ListResponse[ClientResponse] {
	items := make([]ClientResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *FromClient(c))
	}
	return ListResponse[ClientResponse]{Items: items, TotalCount: len(items)}
}
