package model

import "time"

// Student represents a registered examinee.
type Student struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	FatherName    string    `json:"fatherName,omitempty"`
	UserName      string    `json:"userName"`
	PasswordHash  string    `json:"-"`
	Email         string    `json:"email,omitempty"`
	Aadhaar       string    `json:"-"`
	Gender        string    `json:"gender,omitempty"`
	DateOfBirth   string    `json:"dob,omitempty"`
	Address       string    `json:"address,omitempty"`
	ClassID       string    `json:"classId"`
	Board         string    `json:"board,omitempty"`
	School        string    `json:"schoolName,omitempty"`
	SchoolAddress string    `json:"schoolAddress,omitempty"`
	Contact       string    `json:"contact,omitempty"`
	Stream        string    `json:"stream,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LoginRequest is the payload for student authentication.
type LoginRequest struct {
	UserName string `json:"userName" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// StudentProfile is the public subset of a student returned to clients.
type StudentProfile struct {
	ID       int    `json:"id" validate:"gt=0"`
	Name     string `json:"name"`
	UserName string `json:"userName"`
	ClassID  string `json:"classId"`
}

// Profile returns the public subset.
func (s *Student) Profile() StudentProfile {
	return StudentProfile{ID: s.ID, Name: s.Name, UserName: s.UserName, ClassID: s.ClassID}
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Success bool           `json:"success"`
	Token   string         `json:"token" validate:"required"`
	Student StudentProfile `json:"student"`
}

// SignupRequest mirrors the registration form.
type SignupRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	UserName        string `json:"userName" binding:"required,min=3,max=50,alphanum"`
	Password        string `json:"password" binding:"required,min=6,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Email           string `json:"email" binding:"omitempty,email,max=120"`
	FatherName      string `json:"fatherName" binding:"max=100"`
	DateOfBirth     string `json:"dob" binding:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" binding:"omitempty,oneof=Male Female Other"`
	Contact         string `json:"contact" binding:"omitempty,numeric,min=7,max=15"`
	Aadhaar         string `json:"aadhaar" binding:"omitempty,numeric,len=12"`
	StudentClass    string `json:"studentClass" binding:"max=20"`
	Stream          string `json:"stream" binding:"max=50"`
	Board           string `json:"board" binding:"max=50"`
	SchoolName      string `json:"schoolName" binding:"max=150"`
	Address         string `json:"address" binding:"max=255"`
	SchoolAddress   string `json:"schoolAddress" binding:"max=255"`
}

// ToStudent maps the form onto a Student. The password hash is set by the caller.
func (r *SignupRequest) ToStudent() *Student {
	return &Student{
		Name:          r.Name,
		FatherName:    r.FatherName,
		UserName:      r.UserName,
		Email:         r.Email,
		Aadhaar:       r.Aadhaar,
		Gender:        r.Gender,
		DateOfBirth:   r.DateOfBirth,
		Address:       r.Address,
		ClassID:       r.StudentClass,
		Board:         r.Board,
		School:        r.SchoolName,
		SchoolAddress: r.SchoolAddress,
		Contact:       r.Contact,
		Stream:        r.Stream,
	}
}
