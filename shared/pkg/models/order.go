package models

type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name,omitempty" bson:"name,omitempty"`
	Img       string  `json:"img,omitempty" bson:"img,omitempty"`
	Price     float64 `json:"price" bson:"price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// Order is owned by Email. The owner is whatever the caller sent at creation
// and is never rewritten afterwards.
type Order struct {
	ID         string      `json:"_id,omitempty" bson:"_id,omitempty"`
	Email      string      `json:"email" bson:"email"`
	Name       string      `json:"name,omitempty" bson:"name,omitempty"`
	Phone      string      `json:"phone,omitempty" bson:"phone,omitempty"`
	Address    string      `json:"address,omitempty" bson:"address,omitempty"`
	Status     string      `json:"status" bson:"status"`
	TotalPrice float64     `json:"totalPrice" bson:"totalPrice"`
	Items      []OrderItem `json:"items,omitempty" bson:"items,omitempty"`
}
