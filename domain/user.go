package domain

import "time"

// User is a registered pharmacy owner. Every Medicine, Sale and Customer
// record carries the id of the User that created it, and all reads are
// scoped to that owner.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	MiddleName   string    `json:"middle_name,omitempty"`
	LastName     string    `json:"last_name"`
	BusinessName string    `json:"business_name"`
	Country      string    `json:"country"`
	State        string    `json:"state"`
	City         string    `json:"city"`
	Street       string    `json:"street"`
	Pincode      string    `json:"pincode"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	AltPhone     string    `json:"alt_phone,omitempty"`
	GST          string    `json:"gst,omitempty"`
	Aadhar       string    `json:"aadhar,omitempty"`
	PAN          string    `json:"pan,omitempty"`
	DrugLicense  string    `json:"drug_license,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPatch names the profile fields a user may change. Identifier,
// password hash, verified flag and creation timestamp are managed by the
// store and cannot be patched.
type UserPatch struct {
	FirstName    *string `json:"first_name,omitempty"`
	MiddleName   *string `json:"middle_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Country      *string `json:"country,omitempty"`
	State        *string `json:"state,omitempty"`
	City         *string `json:"city,omitempty"`
	Street       *string `json:"street,omitempty"`
	Pincode      *string `json:"pincode,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	AltPhone     *string `json:"alt_phone,omitempty"`
	GST          *string `json:"gst,omitempty"`
	Aadhar       *string `json:"aadhar,omitempty"`
	PAN          *string `json:"pan,omitempty"`
	DrugLicense  *string `json:"drug_license,omitempty"`
}

// Apply merges the patch into a copy of the user and returns it.
func (p UserPatch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.MiddleName != nil {
		u.MiddleName = *p.MiddleName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.BusinessName != nil {
		u.BusinessName = *p.BusinessName
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.State != nil {
		u.State = *p.State
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Street != nil {
		u.Street = *p.Street
	}
	if p.Pincode != nil {
		u.Pincode = *p.Pincode
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.AltPhone != nil {
		u.AltPhone = *p.AltPhone
	}
	if p.GST != nil {
		u.GST = *p.GST
	}
	if p.Aadhar != nil {
		u.Aadhar = *p.Aadhar
	}
	if p.PAN != nil {
		u.PAN = *p.PAN
	}
	if p.DrugLicense != nil {
		u.DrugLicense = *p.DrugLicense
	}
	return u
}
