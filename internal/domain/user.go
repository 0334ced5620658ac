package domain

import "time"

type User struct {
	Id            UserId
	Username      Username
	Email         Email
	PassHash      string
	EmailVerified bool
	OtpHash       string
	OtpExpires    time.Time
}

type Credentials struct {
	Username Username
	Password Password
}
