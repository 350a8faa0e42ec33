package model

import "time"

type Address struct {
	Line1 string `json:"line1" bson:"line1" validate:"omitempty,max=120"`
	Line2 string `json:"line2" bson:"line2" validate:"omitempty,max=120"`
}

// Doctor is the doctors collection document. SlotsBooked is the slot ledger:
// date key -> times already taken for that day. A date key is only present
// while it holds at least one time; releasing the last time removes the key.
type Doctor struct {
	ID         string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name       string  `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email      string  `json:"email,omitempty" bson:"email" validate:"required,email"`
	Password   string  `json:"-" bson:"password" validate:"required,min=8"`
	Image      string  `json:"image" bson:"image" validate:"omitempty,url"`
	Speciality string  `json:"speciality" bson:"speciality" validate:"required,min=2,max=100"`
	Degree     string  `json:"degree" bson:"degree" validate:"required,min=2,max=100"`
	Experience string  `json:"experience" bson:"experience" validate:"required,max=50"`
	About      string  `json:"about" bson:"about" validate:"required,max=2000"`
	Fees       float64 `json:"fees" bson:"fees" validate:"required,gt=0"`
	Address    Address `json:"address" bson:"address"`
	Available  bool    `json:"available" bson:"available"`

	SlotsBooked map[string][]string `json:"slots_booked" bson:"slots_booked,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type DoctorUpdate struct {
	Name       string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Speciality string   `json:"speciality,omitempty" validate:"omitempty,min=2,max=100"`
	Degree     string   `json:"degree,omitempty" validate:"omitempty,min=2,max=100"`
	Experience string   `json:"experience,omitempty" validate:"omitempty,max=50"`
	About      string   `json:"about,omitempty" validate:"omitempty,max=2000"`
	Fees       *float64 `json:"fees,omitempty" validate:"omitempty,gt=0"`
	Address    *Address `json:"address,omitempty"`
	Image      string   `json:"image,omitempty" validate:"omitempty,url"`
}

// AddDoctorRequest carries the fields for creating a doctor. Password lives
// here rather than on Doctor so the model can never echo it back out.
type AddDoctorRequest struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Image      string  `json:"image"`
	Speciality string  `json:"speciality"`
	Degree     string  `json:"degree"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       float64 `json:"fees"`
	Address    Address `json:"address"`
}

// Doctor builds the collection document; validation happens on the result.
func (r *AddDoctorRequest) Doctor() *Doctor {
	return &Doctor{
		Name:       r.Name,
		Email:      r.Email,
		Password:   r.Password,
		Image:      r.Image,
		Speciality: r.Speciality,
		Degree:     r.Degree,
		Experience: r.Experience,
		About:      r.About,
		Fees:       r.Fees,
		Address:    r.Address,
	}
}

// HasSlot reports whether the ledger holds slotTime under dateKey.
func (d *Doctor) HasSlot(dateKey, slotTime string) bool {
	for _, t := range d.SlotsBooked[dateKey] {
		if t == slotTime {
			return true
		}
	}
	return false
}

// Public returns a copy safe for unauthenticated responses.
func (d *Doctor) Public() *Doctor {
	out := *d
	out.Email = ""
	out.Password = ""
	return &out
}
