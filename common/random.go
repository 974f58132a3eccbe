package common

import "github.com/google/uuid"

func GetRandomId() string {
	return uuid.NewString()
}
