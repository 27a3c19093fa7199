package domain

// Address is a saved delivery address.
type Address struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	IsDefault  bool   `json:"isDefault,omitempty"`
}

// PaymentMethodSummary is a masked payment method.
type PaymentMethodSummary struct {
	Type      string `json:"type"`
	Last4     string `json:"last4,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

// NotificationSettings toggles customer notifications.
type NotificationSettings struct {
	Email      bool `json:"email"`
	SMS        bool `json:"sms"`
	Push       bool `json:"push"`
	Promotions bool `json:"promotions"`
}

// UserPreferences is keyed by the user id.
type UserPreferences struct {
	Meta
	Favorites      []string               `json:"favorites"`
	Addresses      []Address              `json:"addresses,omitempty"`
	PaymentMethods []PaymentMethodSummary `json:"paymentMethods,omitempty"`
	Notifications  NotificationSettings   `json:"notifications"`
}
