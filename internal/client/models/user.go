package models

// User is the authenticated identity returned by the backend on
// register/login. The client never interprets fields beyond display;
// the whole record is persisted verbatim alongside the token.
type User struct {
	Id    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
