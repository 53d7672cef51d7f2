package model

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
}

// UserRef is the display-only view of a product's creator, the shape
// produced by the createdBy lookup on product reads.
type UserRef struct {
	ID       primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username string             `json:"username,omitempty" bson:"username,omitempty"`
}

func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Username: u.Username}
}
