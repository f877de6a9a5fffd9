package auth

import (
	"testing"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestIdentityFromUser(t *testing.T) {
	u := &clerk.User{
		ID:                    "user_1",
		FirstName:             clerk.String("Asha"),
		PrimaryEmailAddressID: clerk.String("em_2"),
		EmailAddresses: []*clerk.EmailAddress{
			{ID: "em_1", EmailAddress: "old@example.com"},
			{ID: "em_2", EmailAddress: "asha@example.com"},
		},
		PhoneNumbers: []*clerk.PhoneNumber{{ID: "ph_1", PhoneNumber: "+255712345678"}},
	}

	id := IdentityFromUser(u)
	assert.Equal(t, "user_1", id.UserID)
	assert.Equal(t, "Asha", id.FirstName)
	assert.Empty(t, id.LastName)
	assert.Equal(t, "asha@example.com", id.Email)
	assert.Equal(t, "+255712345678", id.Phone)
}

func TestIdentityFromUser_NoPrimary(t *testing.T) {
	u := &clerk.User{
		ID:             "user_2",
		EmailAddresses: []*clerk.EmailAddress{{ID: "em_1", EmailAddress: "first@example.com"}, nil},
	}
	assert.Equal(t, "first@example.com", IdentityFromUser(u).Email)
}
