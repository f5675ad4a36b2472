package domain

const (
	RequesterIDCtxKey       = "or-requesterId"
	RequesterUsernameCtxKey = "or-requesterUsername"
)
