package junit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "My API!!", expected: "MyApi"},
		{input: "Pets / List pets", expected: "PetsListPets"},
		{input: "get-user_by-id", expected: "GetUserById"},
		{input: "APIKey rotation", expected: "ApiKeyRotation"},
		{input: "fooBar baz", expected: "FooBarBaz"},
		{input: "v2 endpoints", expected: "V2Endpoints"},
		{input: "  ", expected: ""},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassName(tt.input))
		})
	}
}
