package models

// User is a single entry of the user table.
type User struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
	Role string `json:"Role"`
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// MsgInvalidUserID is the Error text for an id with no user behind it.
const MsgInvalidUserID = "Invalid user id."

// ErrorResponse is the body of every error reply. Detail is only filled in
// debug mode.
type ErrorResponse struct {
	Error  string `json:"Error"`
	Detail string `json:"detail,omitempty"`
}

type GreetResponse struct {
	Message string `json:"Message"`
}

// TimeLayout renders as MM/DD/YYYY, HH:MM:SS.
const TimeLayout = "01/02/2006, 15:04:05"

type TimeResponse struct {
	Time string `json:"time"`
}
