package model

import "time"

type Patient struct {
	ID          string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email       string  `json:"email" bson:"email" validate:"required,email"`
	Password    string  `json:"-" bson:"password" validate:"required,min=8"`
	Image       string  `json:"image" bson:"image" validate:"omitempty,url"`
	Phone       string  `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Gender      string  `json:"gender" bson:"gender" validate:"omitempty,oneof=male female other"`
	DateOfBirth string  `json:"date_of_birth" bson:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address     Address `json:"address" bson:"address"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type PatientUpdate struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone       string   `json:"phone,omitempty" validate:"omitempty,e164"`
	Gender      string   `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	DateOfBirth string   `json:"date_of_birth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Address     *Address `json:"address,omitempty"`
	Image       string   `json:"image,omitempty" validate:"omitempty,url"`
}

// Public returns a copy without credential material.
func (p *Patient) Public() *Patient {
	out := *p
	out.Password = ""
	return &out
}
