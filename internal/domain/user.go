package domain

type User struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	PushToken string `json:"-"` // FCM registration token, empty when the user has no device
}
