package model

// AccountInput is an administrator's create or edit of any account. Password
// is required on create and optional on edit.
type AccountInput struct {
	Username   string `form:"username" json:"username" binding:"required,min=3,max=50"`
	Email      string `form:"email" json:"email" binding:"required,email"`
	Password   string `form:"password" json:"password" binding:"omitempty,min=8"`
	Role       string `form:"role" json:"role" binding:"required,oneof=User Vet Admin"`
	FirstName  string `form:"first_name" json:"first_name" binding:"required"`
	MiddleName string `form:"middle_name" json:"middle_name"`
	LastName   string `form:"last_name" json:"last_name" binding:"required"`
	Suffix     string `form:"suffix" json:"suffix"`
	Phone      string `form:"phone" json:"phone"`
}

// ProfileInput is a signed-in user's edit of their own account. The password
// is changed only when NewPassword is set.
type ProfileInput struct {
	FirstName       string `form:"first_name" json:"first_name" binding:"required"`
	MiddleName      string `form:"middle_name" json:"middle_name"`
	LastName        string `form:"last_name" json:"last_name" binding:"required"`
	Suffix          string `form:"suffix" json:"suffix"`
	Phone           string `form:"phone" json:"phone"`
	HouseNumber     string `form:"house_number" json:"house_number"`
	Province        string `form:"province" json:"province"`
	Municipality    string `form:"municipality" json:"municipality"`
	Barangay        string `form:"barangay" json:"barangay"`
	ZipCode         string `form:"zip_code" json:"zip_code" binding:"omitempty,numeric,max=10"`
	Bio             string `form:"bio" json:"bio" binding:"max=1000"`
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password" binding:"omitempty,min=8"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}
