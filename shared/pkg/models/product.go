package models

type Product struct {
	ID          string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name        string  `json:"name" bson:"name"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64 `json:"price" bson:"price"`
	Img         string  `json:"img,omitempty" bson:"img,omitempty"`
	Brand       string  `json:"brand,omitempty" bson:"brand,omitempty"`
	Rating      float64 `json:"rating,omitempty" bson:"rating,omitempty"`
}
