package model

import "time"

// User represents an account record as stored in the `user` table.
// Handlers expose a sanitized view (see handler.userView); the password
// hash never leaves the repository and handler layers.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of User, Staff, Admin.
//  Gender       – free text (Male, Female, Other in the UI).
//  Phone        – optional contact number.
//  Address      – optional postal address.
//  BloodGroup   – donor's group; empty until the donor provides it.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // user.id
	Name         string     // user.name
	Email        string     // user.email
	PasswordHash string     // user.password_hash
	Role         Role       // user.role
	Gender       string     // user.gender
	Phone        string     // user.phone
	Address      string     // user.address
	BloodGroup   BloodGroup // blood_group.name via user.blood_group_id (nullable)
	CreatedAt    time.Time  // user.created_at
	UpdatedAt    time.Time  // user.updated_at
}

// ProfileUpdate carries the mutable profile fields.  Email and role are
// not editable through the profile endpoint.
type ProfileUpdate struct {
	Name       string
	Gender     string
	Phone      string
	Address    string
	BloodGroup BloodGroup
}
