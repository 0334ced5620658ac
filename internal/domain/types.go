package domain

type (
	Email    = string
	Password = string
	UserId   = int64
	Username = string

	BoardId    = int64
	BoardTitle = string

	CardId   = int64
	CardText = string
)
