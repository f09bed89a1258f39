package types

// Person is someone who can hold equipment.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// EntityID returns the person id.
func (p Person) EntityID() string { return p.ID }
